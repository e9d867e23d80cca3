// Command ssn-keygen creates the key used to encrypt SSNs and stores it as
// ENCRYPTION_KEY in a .env file.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/PeakMade/Credit-Boost-Portal/internal/ssn"
)

func main() {
	envPath := flag.String("env", ".env", "path of the .env file to update")
	force := flag.Bool("force", false, "replace an existing ENCRYPTION_KEY")
	printOnly := flag.Bool("print", false, "print the key instead of writing it")
	flag.Parse()

	key, err := ssn.GenerateKey()
	if err != nil {
		fmt.Fprintln(os.Stderr, "generate key:", err)
		os.Exit(1)
	}
	if *printOnly {
		fmt.Println(key)
		return
	}

	if err := upsertKey(*envPath, key, *force); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("%s written to %s\n", ssn.EnvKey, *envPath)
	fmt.Println("Keep this file out of version control. Data encrypted with an old key cannot be read with the new one.")
}

var errKeyExists = errors.New("ENCRYPTION_KEY already set; rerun with -force to replace it")

func upsertKey(path, key string, force bool) error {
	env := map[string]string{}
	if _, err := os.Stat(path); err == nil {
		existing, err := godotenv.Read(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		env = existing
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if env[ssn.EnvKey] != "" && !force {
		return errKeyExists
	}
	env[ssn.EnvKey] = key
	if err := godotenv.Write(env, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
