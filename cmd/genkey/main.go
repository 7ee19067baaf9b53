// Command genkey prints a random secret suitable for ADMIN_JWT_SECRET.
package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
)

const secretBytes = 48

func main() {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("ADMIN_JWT_SECRET=%s\n", base64.RawURLEncoding.EncodeToString(buf))
}
