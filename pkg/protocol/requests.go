package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// Typed request payloads, decoded once at the session boundary so that
// handlers operate on structured fields instead of re-splitting strings.

type LoginRequest struct {
	Username string
	Version  string
}

func DecodeLoginRequest(data string) (*LoginRequest, error) {
	fields := strings.Split(data, ";")
	if len(fields) < 2 {
		return nil, fmt.Errorf("login payload needs username and version, got %q", data)
	}
	if fields[0] == "" {
		return nil, fmt.Errorf("login payload has empty username")
	}
	if !validUsername(fields[0]) {
		return nil, fmt.Errorf("login payload has invalid username %q", fields[0])
	}
	return &LoginRequest{Username: fields[0], Version: fields[1]}, nil
}

const maxUsernameLen = 36

// validUsername restricts usernames to characters that cannot collide
// with any framing delimiter: usernames travel inside comma-joined
// lists and bracketed entity encodings.
func validUsername(name string) bool {
	if len(name) > maxUsernameLen {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '-' || r == '.':
		default:
			return false
		}
	}
	return true
}

type MoveRequest struct {
	X     int
	Y     int
	Dir   int
	Level int
}

func DecodeMoveRequest(data string) (*MoveRequest, error) {
	nums, err := intFields(data, 4)
	if err != nil {
		return nil, fmt.Errorf("move payload: %v", err)
	}
	return &MoveRequest{X: nums[0], Y: nums[1], Dir: nums[2], Level: nums[3]}, nil
}

type ChestInRequest struct {
	EntityID int
	Item     string
}

func DecodeChestInRequest(data string) (*ChestInRequest, error) {
	fields := strings.Split(data, ";")
	if len(fields) < 2 {
		return nil, fmt.Errorf("chest-in payload needs entity id and item, got %q", data)
	}
	eid, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, fmt.Errorf("chest-in payload has bad entity id: %v", err)
	}
	return &ChestInRequest{EntityID: eid, Item: fields[1]}, nil
}

type ChestOutRequest struct {
	EntityID int
	Index    int
}

func DecodeChestOutRequest(data string) (*ChestOutRequest, error) {
	nums, err := intFields(data, 2)
	if err != nil {
		return nil, fmt.Errorf("chest-out payload: %v", err)
	}
	return &ChestOutRequest{EntityID: nums[0], Index: nums[1]}, nil
}

type InteractRequest struct {
	Item       string
	ArrowCount int
}

func DecodeInteractRequest(data string) (*InteractRequest, error) {
	fields := strings.Split(data, ";")
	if len(fields) < 2 {
		return nil, fmt.Errorf("interact payload needs item and arrow count, got %q", data)
	}
	arrows, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, fmt.Errorf("interact payload has bad arrow count: %v", err)
	}
	return &InteractRequest{Item: fields[0], ArrowCount: arrows}, nil
}

type PotionRequest struct {
	Apply bool
	Type  int
}

func DecodePotionRequest(data string) (*PotionRequest, error) {
	fields := strings.Split(data, ";")
	if len(fields) < 2 {
		return nil, fmt.Errorf("potion payload needs apply flag and type index, got %q", data)
	}
	apply, err := strconv.ParseBool(fields[0])
	if err != nil {
		return nil, fmt.Errorf("potion payload has bad apply flag: %v", err)
	}
	idx, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, fmt.Errorf("potion payload has bad type index: %v", err)
	}
	return &PotionRequest{Apply: apply, Type: idx}, nil
}

// DecodeEntityID decodes a payload that is a bare decimal entity id
// (PICKUP, PUSH, BED).
func DecodeEntityID(data string) (int, error) {
	eid, err := strconv.Atoi(strings.TrimSpace(data))
	if err != nil {
		return 0, fmt.Errorf("bad entity id %q: %v", data, err)
	}
	return eid, nil
}

// DecodeLevelIndex decodes the LOAD payload.
func DecodeLevelIndex(data string) (int, error) {
	idx, err := strconv.Atoi(strings.TrimSpace(data))
	if err != nil {
		return 0, fmt.Errorf("bad level index %q: %v", data, err)
	}
	return idx, nil
}

func intFields(data string, want int) ([]int, error) {
	fields := strings.Split(data, ";")
	if len(fields) < want {
		return nil, fmt.Errorf("need %d fields, got %d in %q", want, len(fields), data)
	}
	nums := make([]int, want)
	for i := 0; i < want; i++ {
		n, err := strconv.Atoi(fields[i])
		if err != nil {
			return nil, fmt.Errorf("field %d is not a number: %v", i, err)
		}
		nums[i] = n
	}
	return nums, nil
}
