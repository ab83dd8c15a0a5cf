package models

import (
	"fmt"
	"strings"
)

// WarnLevel clasifica la severidad de una advertencia.
// El orden importa: NOTE < AUTO < MINOR < NORMAL < SERIOUS < INSTANT_MUTE < BAN.
type WarnLevel int

const (
	LevelNote WarnLevel = iota
	LevelAuto
	LevelMinor
	LevelNormal
	LevelSerious
	LevelInstantMute
	LevelBan
)

// String returns the canonical name of the level
func (l WarnLevel) String() string {
	switch l {
	case LevelNote:
		return "NOTE"
	case LevelAuto:
		return "AUTO"
	case LevelMinor:
		return "MINOR"
	case LevelNormal:
		return "NORMAL"
	case LevelSerious:
		return "SERIOUS"
	case LevelInstantMute:
		return "INSTANT_MUTE"
	case LevelBan:
		return "BAN"
	default:
		return "UNKNOWN"
	}
}

// Valid reports whether the level is one of the defined values
func (l WarnLevel) Valid() bool {
	return l >= LevelNote && l <= LevelBan
}

// ParseWarnLevel converts a level name into a WarnLevel
func ParseWarnLevel(s string) (WarnLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NOTE":
		return LevelNote, nil
	case "AUTO":
		return LevelAuto, nil
	case "MINOR":
		return LevelMinor, nil
	case "NORMAL":
		return LevelNormal, nil
	case "SERIOUS":
		return LevelSerious, nil
	case "INSTANT_MUTE", "INSTANTMUTE":
		return LevelInstantMute, nil
	case "BAN":
		return LevelBan, nil
	default:
		return 0, fmt.Errorf("nivel de advertencia desconocido: %q", s)
	}
}

// Emoji returns the emoji used when rendering the level in notices
func (l WarnLevel) Emoji() string {
	switch l {
	case LevelNote:
		return "📝"
	case LevelAuto:
		return "🤖"
	case LevelMinor:
		return "🟡"
	case LevelNormal:
		return "🟠"
	case LevelSerious:
		return "🔴"
	case LevelInstantMute:
		return "🔇"
	case LevelBan:
		return "🔨"
	default:
		return "❔"
	}
}
