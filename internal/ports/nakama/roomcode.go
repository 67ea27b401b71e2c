package nakama

import "math/rand"

// roomCodeLength is the number of digits in a room code.
const roomCodeLength = 6

// generateRoomCode returns a random digit string identifying a room.
func generateRoomCode(rng *rand.Rand, length int) string {
	const digits = "0123456789"
	code := make([]byte, length)
	for i := range code {
		code[i] = digits[rng.Intn(len(digits))]
	}
	return string(code)
}
