package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	password := pflag.StringP("password", "p", "", "password to hash")
	cost := pflag.Int("cost", 12, "bcrypt cost")
	pflag.Parse()

	if *password == "" {
		fmt.Fprintln(os.Stderr, "usage: genhash --password <password> [--cost 12]")
		os.Exit(2)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(*password), *cost)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(string(h))
}
