package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Weekday is one of the seven canonical day codes used as diasHorarios keys
type Weekday string

const (
	Lunes     Weekday = "lunes"
	Martes    Weekday = "martes"
	Miercoles Weekday = "miercoles"
	Jueves    Weekday = "jueves"
	Viernes   Weekday = "viernes"
	Sabado    Weekday = "sabado"
	Domingo   Weekday = "domingo"
)

// Weekdays lists the canonical codes in calendar order starting on Monday
var Weekdays = []Weekday{Lunes, Martes, Miercoles, Jueves, Viernes, Sabado, Domingo}

// Valid reports whether d is a canonical weekday code
func (d Weekday) Valid() bool {
	for _, w := range Weekdays {
		if d == w {
			return true
		}
	}
	return false
}

// Class is a gym-owned activity with a weekly timetable
type Class struct {
	ID           int64                `json:"id"`
	Nombre       string               `json:"nombre"`
	Descripcion  string               `json:"descripcion"`
	CupoMaximo   int                  `json:"cupoMaximo"`
	Activa       bool                 `json:"activa"`
	DiasHorarios map[Weekday][]string `json:"diasHorarios"`
	Imagen       string               `json:"imagen,omitempty"`
}

// AvailableClass is a catalog entry seen from the client-facing browse view
type AvailableClass struct {
	Class
	GymID   string `json:"gymId"`
	GymName string `json:"gymName,omitempty"`
}

// Slots flattens diasHorarios into a set keyed by time range
func (c Class) Slots() map[string]bool {
	out := make(map[string]bool)
	for _, ranges := range c.DiasHorarios {
		for _, r := range ranges {
			out[r] = true
		}
	}
	return out
}

// Validate checks the caller-side invariants of a class. Repositories do not
// call it; request handlers do before writing.
func (c Class) Validate() error {
	if strings.TrimSpace(c.Nombre) == "" {
		return fmt.Errorf("%w: nombre is required", ErrInvalidSchedule)
	}
	if c.CupoMaximo < 0 {
		return fmt.Errorf("%w: cupoMaximo cannot be negative", ErrInvalidSchedule)
	}
	for day, ranges := range c.DiasHorarios {
		if !day.Valid() {
			return fmt.Errorf("%w: unknown weekday %q", ErrInvalidSchedule, day)
		}
		for _, r := range ranges {
			if _, err := ParseTimeRange(r); err != nil {
				return err
			}
		}
	}
	return nil
}

// TimeRange is a parsed "HH:MM-HH:MM" slot expressed in minutes since midnight
type TimeRange struct {
	Start int
	End   int
}

func (r TimeRange) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", r.Start/60, r.Start%60, r.End/60, r.End%60)
}

// ParseTimeRange parses a well-formed "HH:MM-HH:MM" slot; the end must be after the start
func ParseTimeRange(s string) (TimeRange, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 {
		return TimeRange{}, fmt.Errorf("%w: time range %q", ErrInvalidSchedule, s)
	}
	start, err := parseClock(parts[0])
	if err != nil {
		return TimeRange{}, fmt.Errorf("%w: time range %q", ErrInvalidSchedule, s)
	}
	end, err := parseClock(parts[1])
	if err != nil {
		return TimeRange{}, fmt.Errorf("%w: time range %q", ErrInvalidSchedule, s)
	}
	if end <= start {
		return TimeRange{}, fmt.Errorf("%w: time range %q ends before it starts", ErrInvalidSchedule, s)
	}
	return TimeRange{Start: start, End: end}, nil
}

func parseClock(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("bad clock %q", s)
	}
	h, err := strconv.Atoi(s[:2])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("bad hour %q", s)
	}
	m, err := strconv.Atoi(s[3:])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("bad minute %q", s)
	}
	return h*60 + m, nil
}
