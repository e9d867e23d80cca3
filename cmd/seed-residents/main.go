// Command seed-residents writes a workbook of synthetic residents with
// encrypted SSNs in the layout the portal reads at startup.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/PeakMade/Credit-Boost-Portal/internal/config"
	"github.com/PeakMade/Credit-Boost-Portal/internal/service"
	"github.com/PeakMade/Credit-Boost-Portal/internal/source"
	"github.com/PeakMade/Credit-Boost-Portal/internal/ssn"
)

var (
	firstNames = []string{"James", "Mary", "Robert", "Patricia", "John", "Jennifer", "Michael", "Linda", "David", "Elizabeth", "William", "Barbara", "Richard", "Susan", "Joseph", "Jessica", "Thomas", "Sarah", "Carlos", "Maria", "Wei", "Aisha", "Daniel", "Nancy"}
	lastNames  = []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Rodriguez", "Martinez", "Hernandez", "Lopez", "Wilson", "Anderson", "Thomas", "Taylor", "Moore", "Jackson", "Martin", "Lee", "Nguyen", "Chen"}
	streets    = []string{"Main St", "Oak Ave", "Maple Dr", "Cedar Ln", "Pine St", "Elm St", "Lakeview Rd", "Park Blvd", "Sunset Ave", "Hillcrest Dr"}
	unitSuffix = []string{"A", "B", "C", "D", ""}
	rents      = []float64{1200, 1350, 1500, 1650, 1800, 2000}
	// poor, fair, good, very good, exceptional
	scoreBands = [][2]int{{300, 579}, {580, 669}, {670, 739}, {740, 799}, {800, 850}}
)

const dateLayout = "2006-01-02"

func main() {
	count := flag.Int("n", 1000, "number of residents")
	out := flag.String("out", "", "output workbook (default RESIDENTS_XLSX)")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	cfg := config.Load()
	if *out == "" {
		*out = cfg.Data.ExcelPath
	}
	protector, err := ssn.New(cfg.EncryptionKey)
	if err != nil || !protector.Configured() {
		fmt.Fprintln(os.Stderr, "ENCRYPTION_KEY missing or invalid; run ssn-keygen first")
		os.Exit(1)
	}

	rows, err := generateResidents(*count, rand.New(rand.NewSource(*seed)), protector, time.Now())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := writeWorkbook(*out, rows); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("Created %s with %d residents, SSNs encrypted\n", *out, len(rows))
	fmt.Printf("\nSample resident emails (password: %q):\n", service.ResidentPassword)
	for i := 0; i < len(rows) && i < 5; i++ {
		fmt.Printf("  - %s\n", rows[i][1])
	}
	fmt.Printf("\nAdmin login:\n  - %s\n", cfg.Admin.Email)
}

// generateResidents returns rows in source.SpreadsheetHeader order.
func generateResidents(n int, rng *rand.Rand, p *ssn.Protector, now time.Time) ([][]any, error) {
	rows := make([][]any, 0, n)
	for i := 0; i < n; i++ {
		first := firstNames[rng.Intn(len(firstNames))]
		last := lastNames[rng.Intn(len(lastNames))]

		plain := fakeSSN(rng)
		enc, err := p.Encrypt(plain)
		if err != nil {
			return nil, fmt.Errorf("encrypt ssn: %w", err)
		}

		age := 21 + rng.Intn(45)
		dob := now.AddDate(-age, 0, -rng.Intn(365))
		leaseStart := now.AddDate(0, 0, -(30 + rng.Intn(336)))
		band := scoreBands[rng.Intn(len(scoreBands))]

		rows = append(rows, []any{
			first + " " + last,
			fmt.Sprintf("%s.%s%d@test.com", strings.ToLower(first), strings.ToLower(last), i+1),
			fmt.Sprintf("(%03d) %03d-%04d", 200+rng.Intn(800), 200+rng.Intn(800), rng.Intn(10000)),
			fmt.Sprintf("%d%s", 1+rng.Intn(20), unitSuffix[rng.Intn(len(unitSuffix))]),
			"48 West",
			dob.Format(dateLayout),
			fmt.Sprintf("%d %s", 100+rng.Intn(9900), streets[rng.Intn(len(streets))]),
			enc,
			band[0] + rng.Intn(band[1]-band[0]+1),
			leaseStart.Format(dateLayout),
			leaseStart.AddDate(0, 0, 365).Format(dateLayout),
			rents[rng.Intn(len(rents))],
		})
	}
	return rows, nil
}

// fakeSSN avoids the never-issued area numbers 000, 666 and 900-999.
func fakeSSN(rng *rand.Rand) string {
	area := 1 + rng.Intn(899)
	if area == 666 {
		area = 667
	}
	return fmt.Sprintf("%03d-%02d-%04d", area, 1+rng.Intn(99), 1+rng.Intn(9999))
}

func writeWorkbook(path string, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Residents"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}
	header := make([]any, len(source.SpreadsheetHeader))
	for i, h := range source.SpreadsheetHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
