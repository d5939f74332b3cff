// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

// ErrInvalidEntry marks a NewEntry that breaks a data-model invariant.
var ErrInvalidEntry = errors.New("invalid entry")

// MaxTimeTaken is the largest duration the remote integer column holds.
const MaxTimeTaken = math.MaxInt32

// Year is the academic year of a team.
type Year string

// Known years.
const (
	YearFirst  Year = "FY"
	YearSecond Year = "SY"
	YearThird  Year = "TY"
	YearBTech  Year = "BTech"
)

// Years lists the accepted years in display order.
var Years = []Year{YearFirst, YearSecond, YearThird, YearBTech}

// DepartmentAll is the filter value that matches every department.
const DepartmentAll = "All"

// Departments lists the accepted department codes in display order.
var Departments = []string{"CM", "ECS", "AIDS", "IT", "CS", "VLSI", "ENTC", "ACT"}

// Entry is one team's recorded hunt result. ID is assigned by the remote store.
type Entry struct {
	ID         string `json:"id"`
	TeamName   string `json:"team_name"`
	Year       Year   `json:"year"`
	Department string `json:"department"`
	TimeTaken  int    `json:"time_taken"`
}

// NewEntry is an entry awaiting insertion.
type NewEntry struct {
	TeamName   string `json:"team_name"`
	Year       Year   `json:"year"`
	Department string `json:"department"`
	TimeTaken  int    `json:"time_taken"`
}

// Validate enforces the required fields and value ranges.
func (e NewEntry) Validate() error {
	switch {
	case strings.TrimSpace(e.TeamName) == "":
		return fmt.Errorf("%w: team_name is required", ErrInvalidEntry)
	case !ValidYear(e.Year):
		return fmt.Errorf("%w: unknown year %q", ErrInvalidEntry, e.Year)
	case !ValidDepartment(e.Department):
		return fmt.Errorf("%w: unknown department %q", ErrInvalidEntry, e.Department)
	case e.TimeTaken < 0:
		return fmt.Errorf("%w: time_taken must not be negative", ErrInvalidEntry)
	case e.TimeTaken > MaxTimeTaken:
		return fmt.Errorf("%w: time_taken must not exceed %d", ErrInvalidEntry, MaxTimeTaken)
	}
	return nil
}

// ValidYear reports whether y is one of Years.
func ValidYear(y Year) bool { return slices.Contains(Years, y) }

// ValidDepartment reports whether d is one of Departments. "All" is a filter, not a department.
func ValidDepartment(d string) bool { return slices.Contains(Departments, d) }

// ChangeEvent is a notification that the remote table changed. The payload is
// informational; any event means "reload".
type ChangeEvent struct {
	Source     string    `json:"source"`
	Op         string    `json:"op,omitempty"`
	RowID      string    `json:"id,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

// ReloadRequest is one unit of reload work.
type ReloadRequest struct {
	ID          string
	Reason      string
	RequestedAt time.Time
}

// Reload reasons.
const (
	ReasonInitial      = "initial"
	ReasonNotification = "notification"
	ReasonCommand      = "command"
	ReasonManual       = "manual"
)
