package cert

// Status is the verification classification of a certificate ID
type Status string

const (
	StatusNotFound Status = "not_found"
	StatusValid    Status = "valid"
	StatusRevoked  Status = "revoked"
)

// VerificationResult is the public answer for a certificate ID
type VerificationResult struct {
	CertificateID string `json:"certificateId"`
	Status        Status `json:"status"`
	ProductName   string `json:"productName,omitempty"`
	MfgName       string `json:"mfgName,omitempty"`
	MfgDate       uint64 `json:"mfgDate,omitempty"`
	MfgDateText   string `json:"mfgDateText,omitempty"`
	Message       string `json:"message"`
}

// AdminStatus is the role of a checked address
type AdminStatus string

const (
	AdminStatusOwner    AdminStatus = "owner"
	AdminStatusAdmin    AdminStatus = "admin"
	AdminStatusNotAdmin AdminStatus = "not_admin"
)

// AdminCheckResult answers "is this address an admin"
type AdminCheckResult struct {
	Address     string      `json:"address"`
	Status      AdminStatus `json:"status"`
	Message     string      `json:"message"`
	TotalAdmins uint64      `json:"totalAdmins"`
	Owner       string      `json:"owner"`
}

// AdminSummary is the admin set overview shown to connected operators
type AdminSummary struct {
	TotalAdmins uint64 `json:"totalAdmins"`
	Owner       string `json:"owner"`
}
