package pkg

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	RoomCodeLength   = 5
	RoomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// RoomCodeGenerator draws uniformly random room codes from crypto/rand.
type RoomCodeGenerator struct{}

func NewRoomCodeGenerator() *RoomCodeGenerator {
	return &RoomCodeGenerator{}
}

// Generate - generates a random room code.
func (that *RoomCodeGenerator) Generate() (string, error) {
	alphabetSize := big.NewInt(int64(len(RoomCodeAlphabet)))

	var code strings.Builder
	code.Grow(RoomCodeLength)

	for i := 0; i < RoomCodeLength; i++ {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("failed to read random index: %w", err)
		}

		code.WriteByte(RoomCodeAlphabet[n.Int64()])
	}

	return code.String(), nil
}

// NormalizeRoomCode trims and upper-cases a user-typed code.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValidRoomCode reports whether code is exactly RoomCodeLength uppercase alphanumerics.
func IsValidRoomCode(code string) bool {
	if len(code) != RoomCodeLength {
		return false
	}

	for _, r := range code {
		if !strings.ContainsRune(RoomCodeAlphabet, r) {
			return false
		}
	}

	return true
}

// GenerateConnectionID - generates a unique id for a websocket connection.
func GenerateConnectionID() string {
	return uuid.NewString()
}
