package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

type EmergencyContact struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone"`
}

type InsuranceInfo struct {
	Provider     string `json:"provider"`
	PolicyNumber string `json:"policyNumber"`
	ExpiryDate   string `json:"expiryDate"`
}

// PatientProfile holds the medical extension of a patient User. It never
// outlives its user.
type PatientProfile struct {
	UserID           string           `json:"userId" db:"user_id"`
	Gender           string           `json:"gender" db:"gender"`
	Address          string           `json:"address" db:"address"`
	Allergies        string           `json:"allergies" db:"allergies"`
	Medications      string           `json:"medications" db:"medications"`
	EmergencyContact EmergencyContact `json:"emergencyContact" db:"emergency_contact"`
	InsuranceInfo    InsuranceInfo    `json:"insuranceInfo" db:"insurance_info"`
}

// PatientDetails is a patient's Profile merged with their medical profile.
// Missing profile fields are empty strings, never null.
type PatientDetails struct {
	*Profile
	Gender           string           `json:"gender"`
	Address          string           `json:"address"`
	Allergies        string           `json:"allergies"`
	Medications      string           `json:"medications"`
	EmergencyContact EmergencyContact `json:"emergencyContact"`
	InsuranceInfo    InsuranceInfo    `json:"insuranceInfo"`
}

// NewPatientDetails merges p into profile. A nil p yields empty defaults.
func NewPatientDetails(profile *Profile, p *PatientProfile) *PatientDetails {
	d := &PatientDetails{Profile: profile}
	if p != nil {
		d.Gender = p.Gender
		d.Address = p.Address
		d.Allergies = p.Allergies
		d.Medications = p.Medications
		d.EmergencyContact = p.EmergencyContact
		d.InsuranceInfo = p.InsuranceInfo
	}
	return d
}

// Value and Scan store the nested documents as jsonb.

func (e EmergencyContact) Value() (driver.Value, error) { return json.Marshal(e) }

func (e *EmergencyContact) Scan(src interface{}) error { return scanJSON(src, e) }

func (i InsuranceInfo) Value() (driver.Value, error) { return json.Marshal(i) }

func (i *InsuranceInfo) Scan(src interface{}) error { return scanJSON(src, i) }

func scanJSON(src interface{}, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	default:
		return errors.New("unsupported jsonb source type")
	}
}
