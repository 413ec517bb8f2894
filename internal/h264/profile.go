// Package h264 implements the profile-level-id negotiation rules of RFC 6184.
package h264

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidProfileLevelId = errors.New("h264: invalid profile-level-id")
	ErrProfileMismatch       = errors.New("h264: profile mismatch")
)

// Profile is an H264 profile as negotiated over SDP.
type Profile uint8

const (
	ProfileConstrainedBaseline Profile = iota + 1
	ProfileBaseline
	ProfileMain
	ProfileConstrainedHigh
	ProfileHigh
	ProfilePredictiveHigh444
)

var profileNames = map[Profile]string{
	ProfileConstrainedBaseline: "ConstrainedBaseline",
	ProfileBaseline:            "Baseline",
	ProfileMain:                "Main",
	ProfileConstrainedHigh:     "ConstrainedHigh",
	ProfileHigh:                "High",
	ProfilePredictiveHigh444:   "PredictiveHigh444",
}

func (p Profile) String() string {
	return profileNames[p]
}

// Level is ten times the level number, except Level1b which has no natural
// encoding.
type Level uint8

const (
	Level1b Level = 0
	Level1  Level = 10
	Level11 Level = 11
	Level12 Level = 12
	Level13 Level = 13
	Level2  Level = 20
	Level21 Level = 21
	Level22 Level = 22
	Level3  Level = 30
	Level31 Level = 31
	Level32 Level = 32
	Level4  Level = 40
	Level41 Level = 41
	Level42 Level = 42
	Level5  Level = 50
	Level51 Level = 51
	Level52 Level = 52
)

func (l Level) valid() bool {
	switch l {
	case Level1b, Level1, Level11, Level12, Level13, Level2, Level21, Level22,
		Level3, Level31, Level32, Level4, Level41, Level42, Level5, Level51, Level52:
		return true
	}
	return false
}

func (l Level) String() string {
	switch {
	case l == Level1b:
		return "1b"
	case !l.valid():
		return ""
	case l%10 == 0:
		return fmt.Sprintf("%d", l/10)
	default:
		return fmt.Sprintf("%d.%d", l/10, l%10)
	}
}

// less orders levels, placing 1b between 1 and 1.1.
func (l Level) less(other Level) bool {
	switch {
	case l == Level1b:
		return other != Level1 && other != Level1b
	case other == Level1b:
		return l != Level1
	default:
		return l < other
	}
}

func minLevel(a, b Level) Level {
	if a.less(b) {
		return a
	}
	return b
}

// ProfileLevelId is the decoded form of the profile-level-id fmtp parameter.
type ProfileLevelId struct {
	Profile Profile
	Level   Level
}

// DefaultProfileLevelId is assumed when the remote side omits profile-level-id.
// RFC 6184 says Baseline 1, but WebRTC endpoints have always used
// ConstrainedBaseline 3.1 and changing it breaks interop.
var DefaultProfileLevelId = ProfileLevelId{Profile: ProfileConstrainedBaseline, Level: Level31}

// String returns the canonical lower case hex form, or "" when the pair has no
// representation.
func (id ProfileLevelId) String() string {
	if id.Level == Level1b {
		switch id.Profile {
		case ProfileConstrainedBaseline:
			return "42f00b"
		case ProfileBaseline:
			return "42100b"
		case ProfileMain:
			return "4d100b"
		}
		return ""
	}

	var prefix string
	switch id.Profile {
	case ProfileConstrainedBaseline:
		prefix = "42e0"
	case ProfileBaseline:
		prefix = "4200"
	case ProfileMain:
		prefix = "4d00"
	case ProfileConstrainedHigh:
		prefix = "640c"
	case ProfileHigh:
		prefix = "6400"
	case ProfilePredictiveHigh444:
		prefix = "f400"
	default:
		return ""
	}
	return fmt.Sprintf("%s%02x", prefix, uint8(id.Level))
}

// iopPattern matches profile_iop bytes written as "x1xx0000", where x is a
// wildcard bit.
type iopPattern struct {
	mask, value byte
}

func newIopPattern(bits string) iopPattern {
	var p iopPattern
	for i := 0; i < len(bits); i++ {
		bit := byte(1) << (len(bits) - 1 - i)
		switch bits[i] {
		case '1':
			p.mask |= bit
			p.value |= bit
		case '0':
			p.mask |= bit
		}
	}
	return p
}

func (p iopPattern) match(iop byte) bool {
	return iop&p.mask == p.value
}

// RFC 6184 section 8.1.
var profilePatterns = []struct {
	idc     byte
	iop     iopPattern
	profile Profile
}{
	{0x42, newIopPattern("x1xx0000"), ProfileConstrainedBaseline},
	{0x4d, newIopPattern("1xxx0000"), ProfileConstrainedBaseline},
	{0x58, newIopPattern("11xx0000"), ProfileConstrainedBaseline},
	{0x42, newIopPattern("x0xx0000"), ProfileBaseline},
	{0x58, newIopPattern("10xx0000"), ProfileBaseline},
	{0x4d, newIopPattern("0x0x0000"), ProfileMain},
	{0x64, newIopPattern("00000000"), ProfileHigh},
	{0x64, newIopPattern("00001100"), ProfileConstrainedHigh},
	{0xf4, newIopPattern("00000000"), ProfilePredictiveHigh444},
}

// Parse decodes a profile-level-id made of exactly three hex bytes.
func Parse(s string) (ProfileLevelId, error) {
	// For level_idc 11 the constraint_set3 flag selects between 1b and 1.1.
	const constraintSet3 = 0x10

	if len(s) != 6 {
		return ProfileLevelId{}, fmt.Errorf("%w: %q", ErrInvalidProfileLevelId, s)
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return ProfileLevelId{}, fmt.Errorf("%w: %q", ErrInvalidProfileLevelId, s)
	}
	idc, iop, level := raw[0], raw[1], Level(raw[2])

	if level == Level11 && iop&constraintSet3 != 0 {
		level = Level1b
	} else if level == Level1b || !level.valid() {
		return ProfileLevelId{}, fmt.Errorf("%w: unknown level in %q", ErrInvalidProfileLevelId, s)
	}

	for _, p := range profilePatterns {
		if p.idc == idc && p.iop.match(iop) {
			return ProfileLevelId{Profile: p.profile, Level: level}, nil
		}
	}
	return ProfileLevelId{}, fmt.Errorf("%w: unknown profile in %q", ErrInvalidProfileLevelId, s)
}

// ParseSdp is Parse with DefaultProfileLevelId standing in for an absent value.
func ParseSdp(s string) (ProfileLevelId, error) {
	if s == "" {
		return DefaultProfileLevelId, nil
	}
	return Parse(s)
}

// IsSameProfile reports whether both values parse and carry the same profile.
func IsSameProfile(a, b string) bool {
	pa, errA := ParseSdp(a)
	pb, errB := ParseSdp(b)
	return errA == nil && errB == nil && pa.Profile == pb.Profile
}

// IsSameProfileAndLevel is IsSameProfile that also compares levels.
func IsSameProfileAndLevel(a, b string) bool {
	pa, errA := ParseSdp(a)
	pb, errB := ParseSdp(b)
	return errA == nil && errB == nil && pa == pb
}

// Parameters are the H264 specific codec parameters relevant for negotiation.
type Parameters struct {
	PacketizationMode     int
	ProfileLevelId        string
	LevelAsymmetryAllowed bool
}

// ParametersFromMap reads Parameters from generic codec parameters as they
// arrive in RTP capabilities.
func ParametersFromMap(m map[string]any) Parameters {
	var p Parameters
	p.PacketizationMode = intParam(m["packetization-mode"])
	p.LevelAsymmetryAllowed = intParam(m["level-asymmetry-allowed"]) == 1
	if s, ok := m["profile-level-id"].(string); ok {
		p.ProfileLevelId = strings.ToLower(s)
	}
	return p
}

func intParam(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case uint32:
		return int(n)
	case float64:
		return int(n)
	case string:
		var i int
		fmt.Sscanf(n, "%d", &i)
		return i
	}
	return 0
}

// AnswerProfileLevelId returns the profile-level-id to put in an answer given
// local capabilities and the remote offer. Profiles must already be equal;
// only the level is negotiated. It returns "" when neither side set one.
func AnswerProfileLevelId(local, remote Parameters) (string, error) {
	if local.ProfileLevelId == "" && remote.ProfileLevelId == "" {
		return "", nil
	}

	l, err := ParseSdp(local.ProfileLevelId)
	if err != nil {
		return "", fmt.Errorf("local: %w", err)
	}
	r, err := ParseSdp(remote.ProfileLevelId)
	if err != nil {
		return "", fmt.Errorf("remote: %w", err)
	}
	if l.Profile != r.Profile {
		return "", fmt.Errorf("%w: %s vs %s", ErrProfileMismatch, l.Profile, r.Profile)
	}

	// Without asymmetry the answer may not exceed the offered level.
	level := minLevel(l.Level, r.Level)
	if local.LevelAsymmetryAllowed && remote.LevelAsymmetryAllowed {
		level = l.Level
	}
	return ProfileLevelId{Profile: l.Profile, Level: level}.String(), nil
}

// ITU-T H.264 (02/2016) Table A-1, in ascending order.
var levelLimits = []struct {
	macroblocksPerSecond uint32
	frameMacroblocks     uint32
	level                Level
}{
	{1485, 99, Level1},
	{1485, 99, Level1b},
	{3000, 396, Level11},
	{6000, 396, Level12},
	{11880, 396, Level13},
	{11880, 396, Level2},
	{19800, 792, Level21},
	{20250, 1620, Level22},
	{40500, 1620, Level3},
	{108000, 3600, Level31},
	{216000, 5120, Level32},
	{245760, 8192, Level4},
	{245760, 8192, Level41},
	{522240, 8704, Level42},
	{589824, 22080, Level5},
	{983040, 36864, Level51},
	{2073600, 36864, Level52},
}

// SupportedLevel returns the highest level whose every valid stream a decoder
// limited to maxFramePixels at maxFps can handle.
func SupportedLevel(maxFramePixels, maxFps uint32) (Level, bool) {
	const pixelsPerMacroblock = 16 * 16

	for i := len(levelLimits) - 1; i >= 0; i-- {
		lim := levelLimits[i]
		if lim.frameMacroblocks*pixelsPerMacroblock <= maxFramePixels &&
			lim.macroblocksPerSecond <= maxFps*lim.frameMacroblocks {
			return lim.level, true
		}
	}
	return 0, false
}
