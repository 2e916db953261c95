// Package platform maps engine platforms and package versions to the chunk
// identifiers and material layouts the model decoders expect.
package platform

import (
	"errors"
	"fmt"
	"strings"
)

// Type is the engine platform. Values match the engine's own enumeration: the
// high bits group platforms into families (console, mobile, next-gen).
type Type int

const (
	PC Type = 0

	Console Type = 1
	PS2     Type = Console + 1
	Xbox    Type = Console + 2

	Mobile Type = 4
	PSP    Type = Mobile + 1

	NextGen Type = 8
	PS3     Type = NextGen + 1
	Xbox360 Type = NextGen + 2
	Wii     Type = NextGen + 3

	// Any matches every platform.
	Any Type = -1
)

// Model package chunk identifiers.
const (
	MagicPS2  uint32 = 0x32434D47 // 'GMC2'
	MagicXbox uint32 = 0x4258444D // 'MDXB'
	MagicPC   uint32 = 0x4350444D // 'MDPC'
	MagicXN   uint32 = 0x4E58444D // 'MDXN'
	MagicWii  uint32 = 0x4957444D // 'MDWI'

	// MagicFallback is returned for platform/version pairs without a dedicated id.
	MagicFallback uint32 = 0x21505453
)

var (
	ErrUnsupportedPlatformVersion = errors.New("unsupported platform/version")
	ErrUnknownPlatform            = errors.New("unknown platform")
)

// ChunkID returns the context id a model package for platform and version is stored under.
func ChunkID(platform Type, version int) uint32 {
	switch platform {
	case PS2:
		return MagicPS2
	case Xbox:
		return MagicXbox
	case PC:
		switch version {
		case 1:
			return MagicXN
		case 6:
			return MagicPC
		}
	}
	return MagicFallback
}

// Validate checks that context is the id expected for platform and version.
func Validate(platform Type, version int, context uint32) error {
	want := ChunkID(platform, version)
	if context != want {
		return fmt.Errorf("%w: %s v%d expects context 0x%08X, found 0x%08X",
			ErrUnsupportedPlatformVersion, platform, version, want, context)
	}
	return nil
}

// MaterialPackageType selects the material table layout.
type MaterialPackageType int

const (
	MaterialUnknown MaterialPackageType = iota
	MaterialPC
	MaterialXbox
	MaterialPS2
)

func (m MaterialPackageType) String() string {
	switch m {
	case MaterialPC:
		return "PC"
	case MaterialXbox:
		return "Xbox"
	case MaterialPS2:
		return "PS2"
	default:
		return "Unknown"
	}
}

// MaterialPackage returns the material layout used on platform.
func MaterialPackage(platform Type) MaterialPackageType {
	switch platform {
	case PC:
		return MaterialPC
	case Xbox:
		return MaterialXbox
	case PS2:
		return MaterialPS2
	}
	return MaterialUnknown
}

func (t Type) String() string {
	switch t {
	case PC:
		return "PC"
	case PS2:
		return "PS2"
	case Xbox:
		return "Xbox"
	case PSP:
		return "PSP"
	case PS3:
		return "PS3"
	case Xbox360:
		return "Xbox360"
	case Wii:
		return "Wii"
	case Any:
		return "Any"
	default:
		return fmt.Sprintf("platform(%d)", int(t))
	}
}

// ParseType converts a platform name to a Type. Matching is case-insensitive.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pc":
		return PC, nil
	case "ps2":
		return PS2, nil
	case "xbox":
		return Xbox, nil
	case "psp":
		return PSP, nil
	case "ps3":
		return PS3, nil
	case "xbox360", "x360":
		return Xbox360, nil
	case "wii":
		return Wii, nil
	case "any", "*":
		return Any, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPlatform, s)
}
