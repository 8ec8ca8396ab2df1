package domain

// DeviceClass is the posture a resolution presents to the target site.
type DeviceClass string

const (
	DeviceDesktop DeviceClass = "desktop"
	DeviceMobile  DeviceClass = "mobile"
)

// IdentityProfile is the simulated browser fingerprint applied to a single
// resolution attempt. Selected fresh per attempt, immutable afterwards,
// never persisted.
type IdentityProfile struct {
	UserAgent         string
	DeviceClass       DeviceClass
	ViewportWidth     int
	ViewportHeight    int
	IsMobile          bool
	HasTouch          bool
	DeviceScaleFactor float64
}
