// Package loader reads entitlement records from CSV and hands the core a
// validated, canonically ordered record set. All input validation lives
// here - the merkle core only ever sees well-formed records.
package loader

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/Layr-Labs/entitlements-distributor-go/pkg/types"
)

// Expected CSV layout: address,amount,generated_loss
// A header row is optional and detected by its column names.
const expectedFields = 3

// LoadRecords reads and validates entitlement records from a CSV file.
func LoadRecords(path string) ([]*types.EntitlementRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open input file %s", path)
	}
	defer f.Close()

	records, err := ParseRecords(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	return records, nil
}

// ParseRecords parses entitlement records from CSV and returns them
// sorted ascending by raw address bytes (the canonical leaf order).
//
// Rejected inputs: rows with the wrong field count, malformed addresses,
// non-decimal or >256-bit values, duplicate addresses, and empty files.
func ParseRecords(r io.Reader) ([]*types.EntitlementRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV")
	}

	seen := make(map[common.Address]bool)
	records := make([]*types.EntitlementRecord, 0, len(rows))

	for i, row := range rows {
		// Tolerate a header row in the first position
		if i == 0 && isHeaderRow(row) {
			continue
		}

		if len(row) != expectedFields {
			return nil, errors.Errorf("row %d: expected %d fields, got %d", i+1, expectedFields, len(row))
		}

		addrStr := strings.TrimSpace(row[0])
		if !common.IsHexAddress(addrStr) {
			return nil, errors.Errorf("row %d: invalid address %q", i+1, addrStr)
		}
		addr := common.HexToAddress(addrStr)

		if seen[addr] {
			return nil, errors.Errorf("row %d: duplicate address %s", i+1, addr.Hex())
		}
		seen[addr] = true

		amount, err := types.ParseUint256(strings.TrimSpace(row[1]))
		if err != nil {
			return nil, errors.Wrapf(err, "row %d: invalid amount", i+1)
		}

		generatedLoss, err := types.ParseUint256(strings.TrimSpace(row[2]))
		if err != nil {
			return nil, errors.Wrapf(err, "row %d: invalid generated_loss", i+1)
		}

		records = append(records, &types.EntitlementRecord{
			Address:       addr,
			Amount:        amount,
			GeneratedLoss: generatedLoss,
		})
	}

	if len(records) == 0 {
		return nil, errors.New("no entitlement records found")
	}

	SortRecords(records)
	return records, nil
}

// SortRecords sorts records in place, ascending by raw address bytes.
// This is the canonical leaf order for every epoch, so the root is
// independent of input row order.
func SortRecords(records []*types.EntitlementRecord) {
	sort.Slice(records, func(i, j int) bool {
		return bytes.Compare(records[i].Address.Bytes(), records[j].Address.Bytes()) < 0
	})
}

// isHeaderRow reports whether the row is the optional column header.
// Only an exact column-name match counts - anything else in row 0 is
// treated as data so a malformed address there is an error, not a
// silently skipped record.
func isHeaderRow(row []string) bool {
	if len(row) == 0 {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(row[0]), "address")
}
