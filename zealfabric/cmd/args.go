package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sarchlab/zealfabric/mem"
)

var errBadArg = errors.New("bad argument")

type loadArg struct {
	File string
	Addr uint32
}

type dumpArg struct {
	Addr   uint32
	Length int
}

// parseAddr parses a physical address. Numbers take the Go prefixes, so
// 0x80000 and 524288 are the same address.
func parseAddr(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 32)
	if err != nil {
		return 0, fmt.Errorf("address %q: %w", s, errBadArg)
	}

	if v >= mem.MemSpaceSize {
		return 0, fmt.Errorf("address %q beyond 4 MiB: %w", s, errBadArg)
	}

	return uint32(v), nil
}

// parseLoad parses file@addr.
func parseLoad(s string) (loadArg, error) {
	i := strings.LastIndex(s, "@")
	if i <= 0 {
		return loadArg{}, fmt.Errorf("load %q, want file@addr: %w",
			s, errBadArg)
	}

	addr, err := parseAddr(s[i+1:])
	if err != nil {
		return loadArg{}, err
	}

	return loadArg{File: s[:i], Addr: addr}, nil
}

// parseDump parses addr:len.
func parseDump(s string) (dumpArg, error) {
	addrStr, lenStr, ok := strings.Cut(s, ":")
	if !ok {
		return dumpArg{}, fmt.Errorf("dump %q, want addr:len: %w",
			s, errBadArg)
	}

	addr, err := parseAddr(addrStr)
	if err != nil {
		return dumpArg{}, err
	}

	n, err := strconv.ParseUint(strings.TrimSpace(lenStr), 0, 32)
	if err != nil || n == 0 || n > mem.MemSpaceSize {
		return dumpArg{}, fmt.Errorf("dump length %q: %w", lenStr, errBadArg)
	}

	return dumpArg{Addr: addr, Length: int(n)}, nil
}
