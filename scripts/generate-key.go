// Package main is a development utility for generating a JWT signing secret.
// It prints a random 48-byte base64 secret together with a ready-to-copy
// export line for the FLH_JWT_SECRET environment variable, so developers can
// quickly configure a local instance without inventing weak secrets by hand.
// Do not reuse generated secrets across environments — rotate per deployment.
package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
)

func main() {
	// 48 random bytes comfortably clears the recommended 32-character minimum
	randomBytes := make([]byte, 48)
	_, err := rand.Read(randomBytes)
	if err != nil {
		log.Fatal(err)
	}

	secret := base64.RawURLEncoding.EncodeToString(randomBytes)

	fmt.Println("==========================================================")
	fmt.Println("JWT Secret Generated")
	fmt.Println("==========================================================")
	fmt.Printf("\nSecret: %s\n", secret)
	fmt.Println("\n==========================================================")
	fmt.Println("Environment:")
	fmt.Println("==========================================================")
	fmt.Printf("\nexport FLH_JWT_SECRET=%s\n", secret)
	fmt.Println("\n==========================================================")
}
