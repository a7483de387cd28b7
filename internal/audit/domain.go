package audit

import (
	"strings"
	"time"
)

// SessionRecord is one tracked sign-in window for a user.
type SessionRecord struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	IPAddress  string     `json:"ip_address"`
	UserAgent  string     `json:"user_agent"`
	DeviceType string     `json:"device_type"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
}

// ActionRecord is a single tracked user action tied to a session.
type ActionRecord struct {
	ID         string         `json:"id"`
	SessionID  string         `json:"session_id"`
	ActionType string         `json:"action_type"`
	Details    map[string]any `json:"action_details,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// trackableActions is the closed set of action types worth persisting.
// Anything else is dropped silently.
var trackableActions = map[string]struct{}{
	"sign_in":               {},
	"sign_out":              {},
	"create_user":           {},
	"view_inventory":        {},
	"start_count":           {},
	"complete_count":        {},
	"generate_adjustment":   {},
	"view_master_data":      {},
	"create_master_data":    {},
	"update_master_data":    {},
	"delete_master_data":    {},
	"view_transactions":     {},
	"create_transaction":    {},
	"update_transaction":    {},
	"delete_transaction":    {},
	"advance_transaction":   {},
	"view_reports":          {},
	"run_customer_report":   {},
	"run_item_report":       {},
	"run_product_report":    {},
	"run_warehouse_report":  {},
	"run_negative_report":   {},
	"run_manual_report":     {},
	"run_inventory_report":  {},
}

// Trackable reports whether the action type belongs to the whitelist.
func Trackable(actionType string) bool {
	_, ok := trackableActions[actionType]
	return ok
}

var mobileMarkers = []string{"Mobile", "iPhone", "iPod", "iPad", "Android", "BlackBerry", "IEMobile"}

// DeviceTypeFromUserAgent classifies a user agent as mobile or desktop.
func DeviceTypeFromUserAgent(ua string) string {
	for _, marker := range mobileMarkers {
		if strings.Contains(ua, marker) {
			return "mobile"
		}
	}
	return "desktop"
}
