package source

import (
	"math"
	"strings"
)

// Field is a canonical resident attribute.
type Field string

const (
	FieldName         Field = "name"
	FieldFirstName    Field = "first_name"
	FieldLastName     Field = "last_name"
	FieldEmail        Field = "email"
	FieldPhone        Field = "phone"
	FieldUnit         Field = "unit"
	FieldProperty     Field = "property"
	FieldDOB          Field = "dob"
	FieldAddress      Field = "address"
	FieldAddressLine1 Field = "address_line1"
	FieldAddressLine2 Field = "address_line2"
	FieldCity         Field = "city"
	FieldState        Field = "state"
	FieldZip          Field = "zip"
	FieldSSN          Field = "ssn"
	FieldSSNLast4     Field = "ssn_last4"
	FieldCreditScore  Field = "credit_score"
	FieldLeaseStart   Field = "lease_start"
	FieldLeaseEnd     Field = "lease_end"
	FieldMoveIn       Field = "move_in"
	FieldMonthlyRent  Field = "monthly_rent"
	FieldResidentID   Field = "resident_id"
)

// Lookup lists the source keys tried in order, then Default.
type Lookup struct {
	Keys    []string
	Default any
}

// FieldTable maps canonical fields to source keys.
type FieldTable map[Field]Lookup

// Has reports whether the source provides the field at all.
func (t FieldTable) Has(f Field) bool {
	_, ok := t[f]
	return ok
}

// Get returns the first non-blank value for f, else the default. found is
// false when the default was used.
func (t FieldTable) Get(row Row, f Field) (v any, found bool) {
	l, ok := t[f]
	if !ok {
		return nil, false
	}
	for _, k := range l.Keys {
		if val, ok := row[k]; ok && !blank(val) {
			return val, true
		}
	}
	return l.Default, false
}

func blank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		s := strings.TrimSpace(x)
		return s == "" || strings.EqualFold(s, "nan")
	case float64:
		return math.IsNaN(x)
	}
	return false
}

// SpreadsheetFields reads the "Resident PII Test.xlsx" layout.
var SpreadsheetFields = FieldTable{
	FieldName:        {Keys: []string{"Name"}},
	FieldEmail:       {Keys: []string{"Email"}},
	FieldPhone:       {Keys: []string{"Phone"}},
	FieldUnit:        {Keys: []string{"Unit"}},
	FieldProperty:    {Keys: []string{"Property"}, Default: "48 West"},
	FieldDOB:         {Keys: []string{"DOB"}},
	FieldAddress:     {Keys: []string{"Address"}},
	FieldSSN:         {Keys: []string{"SSN"}},
	FieldCreditScore: {Keys: []string{"Credit Score"}, Default: 650},
	FieldLeaseStart:  {Keys: []string{"Lease Start"}},
	FieldLeaseEnd:    {Keys: []string{"Lease End"}},
	FieldMonthlyRent: {Keys: []string{"Monthly Rent"}, Default: 1500.0},
}

// SpreadsheetHeader is the column order written by the seeding tool.
var SpreadsheetHeader = []string{
	"Name", "Email", "Phone", "Unit", "Property", "DOB", "Address",
	"SSN", "Credit Score", "Lease Start", "Lease End", "Monthly Rent",
}

// GraphListFields reads SharePoint list item fields. Internal column names
// encode spaces as _x0020_; display-name variants are tried second.
var GraphListFields = FieldTable{
	FieldFirstName:    {Keys: []string{"First_x0020_Name", "FirstName"}},
	FieldLastName:     {Keys: []string{"Last_x0020_Name", "LastName"}},
	FieldSSNLast4:     {Keys: []string{"SSN_x0020_Last_x0020_4", "SSNLast4"}},
	FieldAddressLine1: {Keys: []string{"Address_x0020_Line_x0020_1", "AddressLine1"}},
	FieldAddressLine2: {Keys: []string{"Address_x0020_Line_x0020_2", "AddressLine2"}},
	FieldCity:         {Keys: []string{"City"}},
	FieldState:        {Keys: []string{"State_x0020_Code", "StateCode"}},
	FieldZip:          {Keys: []string{"Zip_x0020_Code", "ZipCode"}},
	FieldDOB: {Keys: []string{
		"Date_x0020_of_x0020_Birth", "DateOfBirth", "DOB", "Date of Birth", "Date_of_Birth",
	}},
	FieldResidentID:  {Keys: []string{"Resident_x0020_ID", "ResidentID"}},
	FieldUnit:        {Keys: []string{"Unit"}, Default: "Unit TBD"},
	FieldProperty:    {Keys: []string{"Property"}, Default: "Property TBD"},
	FieldCreditScore: {Default: 650},
	FieldMonthlyRent: {Keys: []string{"Monthly_x0020_Rent", "MonthlyRent"}, Default: 1200.0},
}

// CanonicalFields reads records already in the canonical JSON shape
// (test_data.json).
var CanonicalFields = FieldTable{
	FieldName:        {Keys: []string{"name"}},
	FieldEmail:       {Keys: []string{"email"}},
	FieldPhone:       {Keys: []string{"phone"}},
	FieldUnit:        {Keys: []string{"unit", "unit_number"}},
	FieldProperty:    {Keys: []string{"property", "property_name"}, Default: "48 West"},
	FieldDOB:         {Keys: []string{"dob"}},
	FieldAddress:     {Keys: []string{"address"}},
	FieldSSN:         {Keys: []string{"encrypted_ssn", "ssn"}},
	FieldCreditScore: {Keys: []string{"credit_score"}, Default: 650},
	FieldLeaseStart:  {Keys: []string{"lease_start_date"}},
	FieldLeaseEnd:    {Keys: []string{"lease_end_date"}},
	FieldMoveIn:      {Keys: []string{"move_in_date"}},
	FieldMonthlyRent: {Keys: []string{"monthly_rent"}, Default: 1500.0},
	FieldResidentID:  {Keys: []string{"account_number"}},
}
