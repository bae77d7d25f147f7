package tables

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/datatable/internal/dataset"
	"github.com/JonMunkholm/datatable/internal/table"
)

func init() {
	registerEmployees()
}

const employeesQuery = `SELECT id, first_name, last_name, email, department, title, hire_date, salary, active
FROM employees
ORDER BY id`

func registerEmployees() {
	dataset.Register(dataset.Definition{
		Info: dataset.Info{
			Key:         "employees",
			Group:       "HR",
			Label:       "Employees",
			Description: "Current and former staff with derived tenure",
		},
		Columns: []table.Column{
			table.Col("id", "ID"),
			{ID: "name", Header: "Name", Accessor: table.Derive(fullName)},
			{ID: "first_name", Header: "First name", Accessor: table.FieldPath("first_name"), Hidden: true},
			{ID: "last_name", Header: "Last name", Accessor: table.FieldPath("last_name"), Hidden: true},
			{ID: "email", Header: "Email", Accessor: table.FieldPath("email"), Hidden: true},
			table.Col("department", "Department"),
			table.Col("title", "Title"),
			table.Col("hire_date", "Hired"),
			{ID: "tenure", Header: "Tenure (yrs)", Accessor: table.Derive(tenureYears), DisableFilter: true},
			table.Col("salary", "Salary"),
			table.Col("active", "Active"),
		},
		Query: employeesQuery,
		Seed:  employeeSeed,
	})
}

func fullName(r table.Row) (any, error) {
	first := table.Stringify(r["first_name"])
	last := table.Stringify(r["last_name"])
	return strings.TrimSpace(first + " " + last), nil
}

// tenureYears is the time since hire_date in years, to one decimal place.
// Former employees have no tenure.
func tenureYears(r table.Row) (any, error) {
	if active, ok := table.Normalize(r["active"]).(bool); ok && !active {
		return nil, nil
	}
	hired, ok, err := timeField(r, "hire_date")
	if err != nil || !ok {
		return nil, err
	}
	days := decimal.NewFromFloat(Now().Sub(hired).Hours() / 24)
	return days.Div(decimal.NewFromFloat(365.25)).Round(1), nil
}

var employeeHeader = []string{"ID", "First name", "Last name", "Email", "Department", "Title", "Hire date", "Salary", "Active"}

var employeeRecords = [][]string{
	{"E001", "Ada", "Lovelace", "ada.lovelace@example.com", "Engineering", "Principal Engineer", "2015-03-02", "$182,000", "yes"},
	{"E002", "Grace", "Hopper", "grace.hopper@example.com", "Engineering", "Engineering Manager", "2013-07-15", "$195,500", "yes"},
	{"E003", "Alan", "Turing", "alan.turing@example.com", "Research", "Research Scientist", "2016-11-01", "$171,250", "yes"},
	{"E004", "Katherine", "Johnson", "katherine.johnson@example.com", "Finance", "Controller", "2012-05-21", "$158,000", "yes"},
	{"E005", "Linus", "Torvalds", "linus.torvalds@example.com", "Engineering", "Staff Engineer", "2018-01-08", "$176,400", "yes"},
	{"E006", "Margaret", "Hamilton", "margaret.hamilton@example.com", "Engineering", "Director, Platform", "2011-09-12", "$214,000", "yes"},
	{"E007", "Barbara", "Liskov", "barbara.liskov@example.com", "Research", "Distinguished Scientist", "2010-02-01", "$226,750", "yes"},
	{"E008", "Edsger", "Dijkstra", "edsger.dijkstra@example.com", "Research", "Research Scientist", "2014-06-30", "$168,900", "no"},
	{"E009", "Frances", "Allen", "frances.allen@example.com", "Engineering", "Compiler Engineer", "2019-04-15", "$149,300", "yes"},
	{"E010", "Donald", "Knuth", "donald.knuth@example.com", "Research", "Fellow", "2009-10-05", "$240,000", "yes"},
	{"E011", "Radia", "Perlman", "radia.perlman@example.com", "Infrastructure", "Network Architect", "2017-08-21", "$188,100", "yes"},
	{"E012", "Ken", "Thompson", "ken.thompson@example.com", "Infrastructure", "Staff Engineer", "2016-03-14", "$181,000", "no"},
	{"E013", "Dennis", "Ritchie", "dennis.ritchie@example.com", "Infrastructure", "Staff Engineer", "2016-03-14", "$181,000", "no"},
	{"E014", "Hedy", "Lamarr", "hedy.lamarr@example.com", "Research", "Wireless Researcher", "2020-02-03", "$139,800", "yes"},
	{"E015", "Annie", "Easley", "annie.easley@example.com", "Finance", "Financial Analyst", "2021-06-07", "$98,500", "yes"},
	{"E016", "Tim", "Berners-Lee", "tim.bernerslee@example.com", "Engineering", "Web Platform Lead", "2015-12-01", "$179,000", "yes"},
	{"E017", "Sophie", "Wilson", "sophie.wilson@example.com", "Engineering", "Chip Architect", "2018-09-17", "$172,600", "yes"},
	{"E018", "John", "von Neumann", "john.vonneumann@example.com", "Research", "Chief Scientist", "2008-01-14", "$265,000", "yes"},
	{"E019", "Mary", "Jackson", "mary.jackson@example.com", "Finance", "Accounting Manager", "2019-10-28", "$121,200", "yes"},
	{"E020", "Shafi", "Goldwasser", "shafi.goldwasser@example.com", "Security", "Cryptographer", "2017-01-09", "$193,400", "yes"},
	{"E021", "Whitfield", "Diffie", "whitfield.diffie@example.com", "Security", "Security Architect", "2014-04-07", "$187,700", "no"},
	{"E022", "Joan", "Clarke", "joan.clarke@example.com", "Security", "Cryptanalyst", "2022-03-21", "$132,000", "yes"},
	{"E023", "Guido", "van Rossum", "guido.vanrossum@example.com", "Engineering", "Language Lead", "2020-11-02", "$198,250", "yes"},
	{"E024", "Évariste", "Galois", "evariste.galois@example.com", "Research", "Mathematician", "2023-05-15", "$115,000", "yes"},
}

// employeeSeed converts the seed records into the values pgx would return
// for the employees query.
func employeeSeed() []table.Row {
	idx := makeHeaderIndex(employeeHeader)
	rows := make([]table.Row, len(employeeRecords))
	for i, rec := range employeeRecords {
		rows[i] = table.Row{
			"id":         getCell(rec, idx, "ID"),
			"first_name": dataset.Text(getCell(rec, idx, "First name")),
			"last_name":  dataset.Text(getCell(rec, idx, "Last name")),
			"email":      dataset.Text(getCell(rec, idx, "Email")),
			"department": dataset.Text(getCell(rec, idx, "Department")),
			"title":      dataset.Text(getCell(rec, idx, "Title")),
			"hire_date":  dataset.Date(getCell(rec, idx, "Hire date")),
			"salary":     dataset.Numeric(getCell(rec, idx, "Salary")),
			"active":     dataset.Bool(getCell(rec, idx, "Active")),
		}
	}
	return rows
}
