package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/diillson/aws-cost-report-go/internal/shared/types"
	"github.com/guptarohit/asciigraph"
	"github.com/pterm/pterm"
)

const (
	chartHeight   = 10
	chartMaxWidth = 90
)

// Console é uma implementação do ConsoleInterface.
// Relatórios vão para out; logs e spinners vão para logOut.
type Console struct {
	out    io.Writer
	logOut io.Writer
}

// NewConsoleWithWriters cria um Console com destinos separados para relatório e logs.
func NewConsoleWithWriters(out, logOut io.Writer) *Console {
	return &Console{out: out, logOut: logOut}
}

// Print imprime no console.
func (c *Console) Print(a ...interface{}) {
	fmt.Fprint(c.out, a...)
}

// Printf imprime uma string formatada no console.
func (c *Console) Printf(format string, a ...interface{}) {
	fmt.Fprintf(c.out, format, a...)
}

// Println imprime no console com uma nova linha.
func (c *Console) Println(a ...interface{}) {
	fmt.Fprintln(c.out, a...)
}

// LogInfo registra uma mensagem de informação.
func (c *Console) LogInfo(format string, a ...interface{}) {
	pterm.Info.WithWriter(c.logOut).Printfln(format, a...)
}

// LogWarning registra uma mensagem de aviso.
func (c *Console) LogWarning(format string, a ...interface{}) {
	pterm.Warning.WithWriter(c.logOut).Printfln(format, a...)
}

// LogError registra uma mensagem de erro.
func (c *Console) LogError(format string, a ...interface{}) {
	pterm.Error.WithWriter(c.logOut).Printfln(format, a...)
}

// LogSuccess registra uma mensagem de sucesso.
func (c *Console) LogSuccess(format string, a ...interface{}) {
	pterm.Success.WithWriter(c.logOut).Printfln(format, a...)
}

// statusHandle é uma implementação do StatusHandle.
type statusHandle struct {
	spinner *pterm.SpinnerPrinter
}

// Status cria um spinner de status com a mensagem especificada.
func (c *Console) Status(message string) types.StatusHandle {
	spinner, _ := pterm.DefaultSpinner.WithWriter(c.logOut).WithRemoveWhenDone(true).Start(message)
	return &statusHandle{spinner: spinner}
}

// Update atualiza a mensagem de status.
func (h *statusHandle) Update(message string) {
	if h.spinner != nil {
		h.spinner.UpdateText(message)
	}
}

// Stop pára o spinner de status.
func (h *statusHandle) Stop() {
	if h.spinner != nil {
		_ = h.spinner.Stop()
	}
}

// Table é uma implementação do TableInterface.
type Table struct {
	title   string
	columns []string
	rows    [][]string
}

// CreateTable cria uma nova tabela com título opcional.
func (c *Console) CreateTable(title string) types.TableInterface {
	return &Table{
		title:   title,
		columns: []string{},
		rows:    [][]string{},
	}
}

// AddColumn adiciona uma coluna à tabela.
func (t *Table) AddColumn(name string, options ...interface{}) {
	t.columns = append(t.columns, name)
}

// AddRow adiciona uma linha à tabela.
func (t *Table) AddRow(cells ...interface{}) {
	processedCells := make([]string, len(cells))
	for i, cell := range cells {
		processedCells[i] = fmt.Sprint(cell)
	}
	t.rows = append(t.rows, processedCells)
}

// Render renderiza a tabela como uma string.
func (t *Table) Render() string {
	tableData := pterm.TableData{t.columns}
	for _, row := range t.rows {
		tableData = append(tableData, row)
	}

	table := pterm.DefaultTable.
		WithHasHeader().
		WithBoxed().
		WithHeaderStyle(pterm.NewStyle(pterm.FgLightMagenta, pterm.Bold)).
		WithData(tableData)

	renderedTable, _ := table.Srender()
	if t.title == "" {
		return renderedTable + "\n"
	}
	return pterm.NewStyle(pterm.Bold).Sprint(t.title) + "\n" + renderedTable + "\n"
}

// DisplayPanel exibe linhas de texto dentro de uma caixa com título.
func (c *Console) DisplayPanel(title string, lines []string) {
	panel := pterm.DefaultBox.
		WithTitle(pterm.FgLightCyan.Sprint(title)).
		WithBoxStyle(pterm.NewStyle(pterm.FgBlue)).
		Sprint(strings.Join(lines, "\n"))
	fmt.Fprintln(c.out, panel)
}

// DisplayDailyChart exibe o custo total diário como gráfico de linha.
func (c *Console) DisplayDailyChart(points []types.DailyPoint) {
	if len(points) < 2 {
		pterm.Info.WithWriter(c.logOut).Println("Not enough daily data points to draw a chart")
		return
	}

	data := make([]float64, len(points))
	peak := points[0]
	for i, p := range points {
		data[i] = p.Cost
		if p.Cost > peak.Cost {
			peak = p
		}
	}

	width := len(points) * 2
	if width > chartMaxWidth {
		width = chartMaxWidth
	}

	caption := fmt.Sprintf("%s .. %s | peak %s: $%.2f", points[0].Date, points[len(points)-1].Date, peak.Date, peak.Cost)
	graph := asciigraph.Plot(data,
		asciigraph.Height(chartHeight),
		asciigraph.Width(width),
		asciigraph.Precision(2),
		asciigraph.Caption(caption),
	)

	panel := pterm.DefaultBox.
		WithTitle("Daily Cost").
		WithBoxStyle(pterm.NewStyle(pterm.FgCyan)).
		Sprint(graph)
	fmt.Fprintln(c.out, "\n"+panel)
}
