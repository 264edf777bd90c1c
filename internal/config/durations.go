package config

import "time"

// AttendanceTokenMaxAge returns the parsed freshness window. LoadConfig has
// already validated the value.
func (c *Config) AttendanceTokenMaxAge() time.Duration {
	d, _ := time.ParseDuration(c.Attendance.TokenMaxAge)
	return d
}

// AttendanceRotationInterval returns how often displays should fetch a new token.
func (c *Config) AttendanceRotationInterval() time.Duration {
	d, _ := time.ParseDuration(c.Attendance.RotationInterval)
	return d
}

// DatabaseLocation is the zone Postgres groups calendar days in. An empty
// timezone falls back to the process zone.
func (c *Config) DatabaseLocation() *time.Location {
	if c.Database.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Database.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
