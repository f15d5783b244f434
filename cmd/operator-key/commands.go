package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

const keyBytes = 32

// rootOptions holds flags shared by all subcommands
type rootOptions struct {
	Cost int
	JSON bool
}

type keyOutput struct {
	Key  string `json:"key,omitempty"`
	Hash string `json:"hash"`
	Env  string `json:"env"`
}

var errKeyMismatch = errors.New("key does not match hash")

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "operator-key",
		Short: "Manage the Herald operator key",
		Long: `Create and check the shared key sent as X-Operator-Key to the
schedule management endpoints. The server only stores the bcrypt hash
(OPERATOR_KEY_HASH).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Cost < bcrypt.MinCost || opts.Cost > bcrypt.MaxCost {
				return fmt.Errorf("invalid cost %d: must be between %d and %d", opts.Cost, bcrypt.MinCost, bcrypt.MaxCost)
			}
			return nil
		},
	}

	cmd.PersistentFlags().IntVar(&opts.Cost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	cmd.PersistentFlags().BoolVar(&opts.JSON, "json", false, "output as JSON")

	cmd.AddCommand(newGenerateCommand(opts))
	cmd.AddCommand(newHashCommand(opts))
	cmd.AddCommand(newVerifyCommand())

	return cmd
}

func newGenerateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Generate a random key and its hash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			buf := make([]byte, keyBytes)
			if _, err := rand.Read(buf); err != nil {
				return fmt.Errorf("reading random bytes: %w", err)
			}
			key := hex.EncodeToString(buf)
			hash, err := bcrypt.GenerateFromPassword([]byte(key), opts.Cost)
			if err != nil {
				return err
			}
			return writeKey(cmd.OutOrStdout(), opts, keyOutput{Key: key, Hash: string(hash)})
		},
	}
}

func newHashCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "hash [key]",
		Short: "Hash an existing key (reads stdin when no argument is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := keyArg(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(key), opts.Cost)
			if err != nil {
				return err
			}
			return writeKey(cmd.OutOrStdout(), opts, keyOutput{Hash: string(hash)})
		},
	}
}

func newVerifyCommand() *cobra.Command {
	var hash string

	cmd := &cobra.Command{
		Use:   "verify [key]",
		Short: "Check a key against a hash",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if hash == "" {
				hash = os.Getenv("OPERATOR_KEY_HASH")
			}
			if hash == "" {
				return errors.New("no hash given: pass --hash or set OPERATOR_KEY_HASH")
			}
			key, err := keyArg(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)); err != nil {
				if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
					return errKeyMismatch
				}
				return fmt.Errorf("invalid hash: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return err
		},
	}

	cmd.Flags().StringVar(&hash, "hash", "", "bcrypt hash (default $OPERATOR_KEY_HASH)")
	return cmd
}

// keyArg returns the key from args or the first line of r
func keyArg(r io.Reader, args []string) (string, error) {
	var key string
	if len(args) == 1 {
		key = args[0]
	} else {
		data, err := io.ReadAll(io.LimitReader(r, 4096))
		if err != nil {
			return "", err
		}
		key, _, _ = strings.Cut(string(data), "\n")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("key is empty")
	}
	return key, nil
}

func writeKey(w io.Writer, opts *rootOptions, out keyOutput) error {
	out.Env = "OPERATOR_KEY_HASH=" + out.Hash
	if opts.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	if out.Key != "" {
		if _, err := fmt.Fprintf(w, "Key:  %s\n", out.Key); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Hash: %s\n\n%s\n", out.Hash, out.Env)
	return err
}
