package core

import "time"

// DoctorCheck is one connectivity or configuration probe result.
type DoctorCheck struct {
	Name    string        `json:"name"`
	OK      bool          `json:"ok"`
	Detail  string        `json:"detail,omitempty"`
	Elapsed time.Duration `json:"elapsed"`
}

// AllHealthy reports whether every probe passed.
func AllHealthy(checks []DoctorCheck) bool {
	for _, check := range checks {
		if !check.OK {
			return false
		}
	}
	return true
}
