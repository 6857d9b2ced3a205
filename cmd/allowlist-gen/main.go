// Package main builds a Merkle allowlist from a file of addresses and
// writes the root and per-address proofs as JSON.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tentou-tech/mimboku-mint-go/pkg/allowlist"
)

func main() {
	var (
		inPath  = flag.String("addresses", "", "file with one hex address per line")
		outPath = flag.String("out", "whiteList.json", "output JSON file")
	)
	flag.Parse()

	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "usage: allowlist-gen -addresses <file> [-out whiteList.json]")
		os.Exit(2)
	}

	addrs, err := readAddresses(*inPath)
	if err != nil {
		log.Fatalf("read addresses: %v", err)
	}

	tree, err := allowlist.NewTree(addrs)
	if err != nil {
		log.Fatalf("build tree: %v", err)
	}

	export, err := tree.Export()
	if err != nil {
		log.Fatalf("export tree: %v", err)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		log.Fatalf("encode: %v", err)
	}

	if err := os.WriteFile(*outPath, data, 0o644); err != nil {
		log.Fatalf("write %s: %v", *outPath, err)
	}

	fmt.Printf("Here is Root Hash: %s\n", tree.Root().Hex())
	fmt.Printf("Wrote %d entries to %s\n", len(addrs), *outPath)
}

// readAddresses parses one hex address per line, skipping blanks and
// comment lines.
func readAddresses(path string) ([]common.Address, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var addrs []common.Address
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !common.IsHexAddress(line) {
			return nil, fmt.Errorf("invalid address: %s", line)
		}
		addrs = append(addrs, common.HexToAddress(line))
	}
	return addrs, scanner.Err()
}
