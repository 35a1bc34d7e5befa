package domain

import (
	"fmt"
	"time"

	"github.com/fahaniecares/notification-delivery/internal/errs"
)

// DigestFrequency controls how often a user wants non-urgent notifications
// rolled up. The delivery core stores and surfaces it; batching itself is the
// digest mailer's concern.
type DigestFrequency string

const (
	DigestImmediate DigestFrequency = "immediate"
	DigestHourly    DigestFrequency = "hourly"
	DigestDaily     DigestFrequency = "daily"
	DigestWeekly    DigestFrequency = "weekly"
)

func (f DigestFrequency) IsValid() bool {
	switch f {
	case DigestImmediate, DigestHourly, DigestDaily, DigestWeekly:
		return true
	default:
		return false
	}
}

func (f DigestFrequency) String() string {
	return string(f)
}

// Preference holds one user's delivery settings. Exactly one exists per user;
// it is created lazily with system defaults on first use.
type Preference struct {
	ID     int64
	UserID int64

	EmailEnabled bool
	InAppEnabled bool
	PushEnabled  bool
	SMSEnabled   bool

	// TypePreferences maps a notification type to enabled/disabled. A type
	// absent from the map is enabled.
	TypePreferences map[NotificationType]bool

	DigestFrequency DigestFrequency

	// QuietHoursStart/End are local "HH:MM" strings. Both must be set for
	// quiet hours to apply; the window may cross midnight.
	QuietHoursStart string
	QuietHoursEnd   string
	Timezone        string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultPreference returns the system defaults applied on lazy creation:
// email, in-app and push on, SMS off, immediate digest, no quiet hours.
func DefaultPreference(userID int64) Preference {
	return Preference{
		UserID:          userID,
		EmailEnabled:    true,
		InAppEnabled:    true,
		PushEnabled:     true,
		SMSEnabled:      false,
		DigestFrequency: DigestImmediate,
	}
}

func (p *Preference) Validate() error {
	if p.UserID <= 0 {
		return fmt.Errorf("%w: UserID = %d", errs.ErrInvalidParameter, p.UserID)
	}
	if !p.DigestFrequency.IsValid() {
		return fmt.Errorf("%w: DigestFrequency = %q", errs.ErrInvalidParameter, p.DigestFrequency)
	}
	for t := range p.TypePreferences {
		if !t.IsValid() {
			return fmt.Errorf("%w: %q", errs.ErrUnknownNotificationType, t)
		}
	}
	if (p.QuietHoursStart == "") != (p.QuietHoursEnd == "") {
		return fmt.Errorf("%w: quiet hours need both start and end", errs.ErrInvalidParameter)
	}
	if p.QuietHoursStart != "" {
		if _, err := parseClock(p.QuietHoursStart); err != nil {
			return fmt.Errorf("%w: QuietHoursStart = %q", errs.ErrInvalidParameter, p.QuietHoursStart)
		}
		if _, err := parseClock(p.QuietHoursEnd); err != nil {
			return fmt.Errorf("%w: QuietHoursEnd = %q", errs.ErrInvalidParameter, p.QuietHoursEnd)
		}
	}
	if p.Timezone != "" {
		if _, err := time.LoadLocation(p.Timezone); err != nil {
			return fmt.Errorf("%w: Timezone = %q", errs.ErrInvalidParameter, p.Timezone)
		}
	}
	return nil
}

func (p *Preference) ChannelEnabled(ch Channel) bool {
	switch ch {
	case ChannelEmail:
		return p.EmailEnabled
	case ChannelInApp:
		return p.InAppEnabled
	case ChannelPush:
		return p.PushEnabled
	case ChannelSMS:
		return p.SMSEnabled
	default:
		return false
	}
}

// TypeEnabled reports whether the notification type is enabled. Types absent
// from the map default to enabled.
func (p *Preference) TypeEnabled(t NotificationType) bool {
	if p.TypePreferences == nil {
		return true
	}
	enabled, ok := p.TypePreferences[t]
	if !ok {
		return true
	}
	return enabled
}

// SetTypeEnabled upserts the per-type toggle. Idempotent.
func (p *Preference) SetTypeEnabled(t NotificationType, enabled bool) {
	if p.TypePreferences == nil {
		p.TypePreferences = make(map[NotificationType]bool, 1)
	}
	p.TypePreferences[t] = enabled
}

// EnabledChannels returns the channels whose toggles are on, in stable order.
func (p *Preference) EnabledChannels() []Channel {
	all := AllChannels()
	out := make([]Channel, 0, len(all))
	for _, ch := range all {
		if p.ChannelEnabled(ch) {
			out = append(out, ch)
		}
	}
	return out
}

// InQuietHours reports whether now falls inside the user's quiet-hours
// window, evaluated in the user's timezone. Unset or malformed settings
// disable the feature rather than block delivery.
func (p *Preference) InQuietHours(now time.Time) bool {
	if p.QuietHoursStart == "" || p.QuietHoursEnd == "" {
		return false
	}
	loc := time.UTC
	if p.Timezone != "" {
		l, err := time.LoadLocation(p.Timezone)
		if err != nil {
			return false
		}
		loc = l
	}
	start, err := parseClock(p.QuietHoursStart)
	if err != nil {
		return false
	}
	end, err := parseClock(p.QuietHoursEnd)
	if err != nil {
		return false
	}
	local := now.In(loc)
	cur := local.Hour()*60 + local.Minute()
	if start == end {
		return false
	}
	if start < end {
		return cur >= start && cur < end
	}
	// Window crosses midnight, e.g. 22:00-07:00.
	return cur >= start || cur < end
}

// QuietHoursEndTime returns the next moment the quiet-hours window closes,
// in UTC. Callers must have checked InQuietHours first.
func (p *Preference) QuietHoursEndTime(now time.Time) time.Time {
	loc := time.UTC
	if p.Timezone != "" {
		if l, err := time.LoadLocation(p.Timezone); err == nil {
			loc = l
		}
	}
	end, err := parseClock(p.QuietHoursEnd)
	if err != nil {
		return now
	}
	local := now.In(loc)
	endToday := time.Date(local.Year(), local.Month(), local.Day(), end/60, end%60, 0, 0, loc)
	if !endToday.After(local) {
		endToday = endToday.Add(24 * time.Hour)
	}
	return endToday.UTC()
}

// parseClock turns "HH:MM" into minutes since midnight.
func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
