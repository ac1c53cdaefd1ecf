package model

import "strings"

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusOngoing   AppointmentStatus = "ongoing"
	AppointmentStatusDone      AppointmentStatus = "done"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// NormalizeStatus lowercases s and maps anything unknown to scheduled.
func NormalizeStatus(s string) AppointmentStatus {
	switch st := AppointmentStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case AppointmentStatusScheduled, AppointmentStatusOngoing, AppointmentStatusDone, AppointmentStatusCancelled:
		return st
	default:
		return AppointmentStatusScheduled
	}
}

// Appointment is one scheduled visit as the collaborator stores it.
// ServiceIDs holds the encoded selection list ("id:qty,..." or a legacy form).
type Appointment struct {
	ID              ID     `db:"id" json:"id"`
	PatientID       ID     `db:"patient_id" json:"patientId"`
	PatientName     string `db:"patient_name" json:"patientName"`
	ServiceID       ID     `db:"service_id" json:"serviceId"`
	ServiceName     string `db:"service_name" json:"serviceName"`
	ServiceIDs      string `db:"service_ids" json:"serviceIds"`
	ServiceNames    string `db:"service_names" json:"serviceNames"`
	AppointmentDate string `db:"appointment_date" json:"appointmentDate"`
	TimeStart       string `db:"time_start" json:"timeStart"`
	TimeEnd         string `db:"time_end" json:"timeEnd"`
	Status          string `db:"status" json:"status"`
	Comments        string `db:"comments" json:"comments,omitempty"`
}

// Selection is one chosen service with its quantity. Name is a cached
// display hint used when the catalog no longer knows the id.
type Selection struct {
	ServiceID ID     `json:"serviceId"`
	Quantity  int    `json:"quantity"`
	Name      string `json:"name,omitempty"`
}

// AppointmentPayload is the body of POST /appointments and PUT /appointments/:id.
type AppointmentPayload struct {
	PatientID       ID                `json:"patientId"`
	PatientName     string            `json:"patientName"`
	ServiceID       ID                `json:"serviceId"`
	ServiceName     string            `json:"serviceName"`
	ServiceIDs      string            `json:"serviceIds"`
	ServiceNames    string            `json:"serviceNames"`
	AppointmentDate string            `json:"appointmentDate"`
	TimeStart       string            `json:"timeStart"`
	TimeEnd         string            `json:"timeEnd"`
	Status          AppointmentStatus `json:"status"`
	Comments        string            `json:"comments"`
}

// SaveResult echoes the persisted id.
type SaveResult struct {
	ID ID `json:"id"`
}
