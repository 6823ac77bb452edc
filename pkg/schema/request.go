package schema

// LetterType enumerates the letters the RT office can issue.
type LetterType string

const (
	LetterPindah    LetterType = "Surat Keterangan Pindah"
	LetterNikah     LetterType = "Surat Izin Nikah (N1-N4)"
	LetterKeramaian LetterType = "Surat Izin Keramaian"
	LetterKematian  LetterType = "Surat Kematian"
	LetterSKTM      LetterType = "SKTM (Surat Keterangan Tidak Mampu)"
	LetterDomisili  LetterType = "Surat Keterangan Domisili"
)

// RequestStatus is the verification state of a letter request.
type RequestStatus string

const (
	StatusPending  RequestStatus = "Menunggu Verifikasi"
	StatusApproved RequestStatus = "Disetujui"
	StatusRejected RequestStatus = "Ditolak"
)

// DeathDetails carries the extra fields of a Surat Kematian request.
type DeathDetails struct {
	Date        string `json:"date"`
	DayPasaran  string `json:"dayPasaran"`
	Time        string `json:"time"`
	Place       string `json:"place"`
	BurialPlace string `json:"burialPlace"`
}

// ServiceRequest is one letter request submitted by a resident or on their
// behalf. ID is generated at submission time and is the natural key.
type ServiceRequest struct {
	ID           string        `json:"id"`
	NIK          string        `json:"nik"`
	ResidentName string        `json:"residentName"`
	Type         LetterType    `json:"type"`
	Status       RequestStatus `json:"status"`
	CreatedAt    string        `json:"createdAt"`
	Address      string        `json:"address,omitempty"`
	PobDob       string        `json:"pobDob,omitempty"`
	Purpose      string        `json:"purpose,omitempty"`
	DeathDetails *DeathDetails `json:"deathDetails,omitempty"`
	PDFURL       string        `json:"pdfUrl,omitempty"`
}
