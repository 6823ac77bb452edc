// Package schema defines the record types shared by every component of the
// warga-store platform. JSON field names match the browser application's
// persisted data, so exports from older installations load without a rewrite.
package schema

// MaritalStatus values as they appear on the KTP form.
type MaritalStatus string

const (
	Lajang     MaritalStatus = "Lajang"
	Menikah    MaritalStatus = "Menikah"
	CeraiHidup MaritalStatus = "Cerai Hidup"
	CeraiMati  MaritalStatus = "Cerai Mati"
)

// Resident is one registered neighborhood resident. NIK is the natural key:
// there is never more than one resident per NIK in the collection.
type Resident struct {
	NIK           string        `json:"nik"`
	NoKK          string        `json:"noKk"`
	Name          string        `json:"name"`
	POB           string        `json:"pob"`
	DOB           string        `json:"dob"`
	Gender        string        `json:"gender"`
	Religion      string        `json:"religion"`
	Occupation    string        `json:"occupation"`
	BloodType     string        `json:"bloodType"`
	MaritalStatus MaritalStatus `json:"maritalStatus"`
	Province      string        `json:"province"`
	Regency       string        `json:"regency"`
	District      string        `json:"district"`
	Village       string        `json:"village"`
	Address       string        `json:"address"`
}
