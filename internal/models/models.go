package models

// Wire shapes of the QuickServe API. Field names follow the backend's JSON
// responses; optional columns stay pointers so "absent" and "zero" differ.

// User is the account shared by all three roles.
type User struct {
	ID       int64  `json:"id" db:"id"`
	Email    string `json:"email" db:"email"`
	FullName string `json:"full_name" db:"full_name"`
	Phone    string `json:"phone,omitempty" db:"phone"`
	Role     string `json:"role" db:"role"`
}

const (
	RoleCustomer = "customer"
	RoleProvider = "provider"
	RoleAdmin    = "admin"
)

// Request is a service request owned by a customer. The backend owns every
// mutation; the client only holds ephemeral read copies.
type Request struct {
	ID           int64         `json:"id" db:"id"`
	Title        string        `json:"title" db:"title"`
	ServiceType  string        `json:"service_type" db:"service_type"`
	Status       RequestStatus `json:"status" db:"status"`
	Address      string        `json:"address,omitempty" db:"address"`
	Description  string        `json:"description,omitempty" db:"description"`
	Budget       *float64      `json:"budget,omitempty" db:"budget"`
	CancelReason string        `json:"cancel_reason,omitempty" db:"cancel_reason"`
	CustomerLat  *float64      `json:"customer_lat,omitempty" db:"customer_lat"`
	CustomerLng  *float64      `json:"customer_lng,omitempty" db:"customer_lng"`
	ProviderID   *int64        `json:"provider_id,omitempty" db:"provider_id"`
}

// RequestCreate is the POST /requests payload.
type RequestCreate struct {
	Title       string   `json:"title"`
	ServiceType string   `json:"service_type"`
	Address     string   `json:"address,omitempty"`
	Description string   `json:"description,omitempty"`
	Budget      *float64 `json:"budget,omitempty"`
	CustomerLat *float64 `json:"customer_lat,omitempty"`
	CustomerLng *float64 `json:"customer_lng,omitempty"`
}

// Provider is a provider profile as /provider/me returns it.
type Provider struct {
	ID              int64     `json:"id" db:"id"`
	UserID          int64     `json:"user_id" db:"user_id"`
	ServiceType     string    `json:"service_type" db:"service_type"`
	BasePrice       float64   `json:"base_price" db:"base_price"`
	IsOnline        bool      `json:"is_online" db:"is_online"`
	KycStatus       KYCStatus `json:"kyc_status" db:"kyc_status"`
	Bio             string    `json:"bio,omitempty" db:"bio"`
	ExperienceYears int       `json:"experience_years" db:"experience_years"`
	City            string    `json:"city,omitempty" db:"city"`
	AddressLine     string    `json:"address_line,omitempty" db:"address_line"`
	WorkingDays     []string  `json:"working_days"`
	StartTime       string    `json:"start_time" db:"start_time"`
	EndTime         string    `json:"end_time" db:"end_time"`
}

// ProviderMe is the composite /provider/me response.
type ProviderMe struct {
	User     User     `json:"user"`
	Provider Provider `json:"provider"`
}

// ProviderPublic is the public profile customers see.
type ProviderPublic struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	ServiceType   string  `json:"service_type"`
	City          string  `json:"city"`
	BasePrice     float64 `json:"base_price"`
	Rating        float64 `json:"rating"`
	JobsCompleted int     `json:"jobs_completed"`
	IsOnline      bool    `json:"is_online"`
}

// NearbyProvider is one entry of /customer/nearby-providers. DistanceKm is
// null until the backend grows real distance computation.
type NearbyProvider struct {
	ProviderID int64    `json:"provider_id"`
	Name       string   `json:"name"`
	Area       string   `json:"area"`
	DistanceKm *float64 `json:"distance_km"`
	EstMin     float64  `json:"est_min"`
	EstMax     float64  `json:"est_max"`
	Rating     float64  `json:"rating"`
	Jobs       int      `json:"jobs"`
}

// Availability is the PUT /provider/me/availability payload.
type Availability struct {
	IsOnline    bool     `json:"is_online"`
	WorkingDays []string `json:"working_days"`
	StartTime   string   `json:"start_time"`
	EndTime     string   `json:"end_time"`
}

// LocationUpdate is the POST /provider/providers/location payload. A final
// zeroed offline update tells the backend the provider is no longer live.
type LocationUpdate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	IsOnline  bool    `json:"is_online"`
}

// Position is a device fix from a watch source.
type Position struct {
	Latitude  float64
	Longitude float64
}

// KYCRecord is a provider's verification bundle, one-to-one with the
// provider. Approval gates online eligibility.
type KYCRecord struct {
	IDNumber        string    `json:"id_number"`
	AddressLine     string    `json:"address_line,omitempty"`
	IDProofURL      string    `json:"id_proof_url,omitempty"`
	AddressProofURL string    `json:"address_proof_url,omitempty"`
	ProfilePhotoURL string    `json:"profile_photo_url,omitempty"`
	Status          KYCStatus `json:"status"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
}

// KYCUpload is the multipart /provider/kyc/upload form. File paths are
// sniffed for content type before upload.
type KYCUpload struct {
	IDNumber         string
	AddressLine      string
	IDProofPath      string
	AddressProofPath string
	ProfilePhotoPath string
}

// CustomerMe is the composite /customer/me response.
type CustomerMe struct {
	User     User `json:"user"`
	Customer struct {
		ID int64 `json:"id"`
	} `json:"customer"`
	Stats struct {
		Active    int `json:"active"`
		Completed int `json:"completed"`
		Total     int `json:"total"`
	} `json:"stats"`
}

// AdminStats is the /admin/stats dashboard payload.
type AdminStats struct {
	PendingKyc      int `json:"pending_kyc"`
	TotalProviders  int `json:"total_providers"`
	OnlineProviders int `json:"online_providers"`
	TotalCustomers  int `json:"total_customers"`
	TotalRequests   int `json:"total_requests"`
	OpenReports     int `json:"open_reports"`
}

// KycQueueItem is one row of the admin KYC review queue.
type KycQueueItem struct {
	ProviderID  int64     `json:"provider_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	ServiceType string    `json:"service_type"`
	KycStatus   KYCStatus `json:"kyc_status"`
	IsOnline    bool      `json:"is_online"`
}

// KycDetail is the admin review view of one provider's documents.
type KycDetail struct {
	User     User      `json:"user"`
	Provider Provider  `json:"provider"`
	Kyc      KYCRecord `json:"kyc"`
}

// Report is an admin-visible issue report.
type Report struct {
	ID       int64  `json:"id" db:"id"`
	Subject  string `json:"subject" db:"subject"`
	Body     string `json:"body" db:"body"`
	Status   string `json:"status" db:"status"`
	Reporter string `json:"reporter" db:"reporter"`
}

// Settings is the admin-editable platform settings document.
type Settings struct {
	PlatformName     string  `json:"platform_name"`
	SupportEmail     string  `json:"support_email"`
	CommissionPct    float64 `json:"commission_pct"`
	MaintenanceMode  bool    `json:"maintenance_mode"`
	MaxActiveJobs    int     `json:"max_active_jobs"`
	DefaultCurrency  string  `json:"default_currency"`
}

// ReverseLocation is the /location/reverse response.
type ReverseLocation struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
}

// ImageAnalysis is the /ai/analyze-image response used by the smart
// request form.
type ImageAnalysis struct {
	ServiceType string `json:"service_type"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Paged wraps list endpoints that return {total, items}.
type Paged[T any] struct {
	Total int `json:"total"`
	Items []T `json:"items"`
}
