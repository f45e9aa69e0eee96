package match

import (
	"crypto/rand"
	"math/big"
)

const titleLength = 10

func generateTitle() string {
	const charset = "abcdefghijklmnopqrstuvwxyz"

	title := make([]byte, titleLength)
	limit := big.NewInt(int64(len(charset)))
	for i := range title {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			title[i] = charset[i%len(charset)]
			continue
		}
		title[i] = charset[n.Int64()]
	}

	return string(title)
}
