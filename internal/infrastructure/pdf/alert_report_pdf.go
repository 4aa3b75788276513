// Package pdf genera el reporte imprimible de alertas de reposición a partir de un
// ReconciliationReport.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título + Empresa     |  Corrida + Fecha de corte   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: Ítems / Alertas / Críticas / Valor faltante       │
//	│  ─────────────────────────────────────────────────────────  │
//	│ TABLA: Ítem | Cant | Nivel | Estado | Urgencia | Días | Sug │
//	│  ─────────────────────────────────────────────────────────  │
//	│  DESCUADRES log vs vista + SALDOS NEGATIVOS                 │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/stock-reconciler/internal/application/dto"
	"github.com/jhoicas/stock-reconciler/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary  = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray     = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorCritical = &props.Color{Red: 180, Green: 20, Blue: 20}
	colorHigh     = &props.Color{Red: 200, Green: 110, Blue: 0}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoAlertReportGenerator genera el PDF de alertas con Maroto v2.
type MarotoAlertReportGenerator struct{}

func NewMarotoAlertReportGenerator() *MarotoAlertReportGenerator {
	return &MarotoAlertReportGenerator{}
}

// GenerateAlertReport devuelve los bytes del PDF. Un reporte sin alertas produce un
// documento válido con la leyenda "Sin alertas".
func (g *MarotoAlertReportGenerator) GenerateAlertReport(_ context.Context, report *dto.ReconciliationReport) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("pdf: reporte nil")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Reporte de alertas de stock", true).
		WithAuthor(report.Scope.CompanyID, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(report))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(summaryRow(report.Summary))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(sectionTitle("ALERTAS DE REPOSICIÓN"))
	if len(report.Alerts) == 0 {
		m.AddRows(emptyRow("Sin alertas"))
	} else {
		m.AddRows(alertHeaderRow())
		m.AddRows(alertRows(report.Alerts)...)
	}

	if len(report.Discrepancies) > 0 {
		m.AddRows(line.NewRow(3))
		m.AddRows(sectionTitle("DESCUADRES LOG vs VISTA"))
		m.AddRows(discrepancyRows(report.Discrepancies)...)
	}
	if len(report.NegativeBalances) > 0 {
		m.AddRows(line.NewRow(3))
		m.AddRows(sectionTitle("SALDOS NEGATIVOS"))
		m.AddRows(negativeRows(report.NegativeBalances)...)
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(row.New(8).Add(col.New(12).Add(
		text.New(fmt.Sprintf("Generado %s. Saldos derivados del log de transacciones; la vista materializada solo se usa para detectar descuadres.",
			report.CompletedAt.Format("02/01/2006 15:04 MST")),
			props.Text{Size: 6.5, Color: colorGray, Top: 2}),
	)))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(report *dto.ReconciliationReport) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New("REPORTE DE ALERTAS DE STOCK", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Empresa: "+report.Scope.CompanyID, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("Corrida "+report.RunID, props.Text{
				Size: 7, Align: align.Right, Color: colorGray, Top: 1,
			}),
			text.New("Corte: "+report.AsOf.Format("02/01/2006 15:04"), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Top: 7,
			}),
			text.New("Estado: "+string(report.Status), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func summaryRow(s dto.ReportSummary) core.Row {
	cell := func(label, value string) core.Col {
		return col.New(3).Add(
			text.New(label, props.Text{Size: 7, Color: colorGray, Align: align.Center, Top: 1}),
			text.New(value, props.Text{Style: fontstyle.Bold, Size: 11, Align: align.Center, Top: 5}),
		)
	}
	return row.New(13).Add(
		cell("Ítems", fmt.Sprint(s.TotalItems)),
		cell("Alertas", fmt.Sprint(s.AlertCount)),
		cell("Críticas", fmt.Sprint(s.CriticalCount)),
		cell("Valor faltante", s.TotalShortageValue.StringFixed(2)),
	)
}

func sectionTitle(title string) core.Row {
	return row.New(7).Add(col.New(12).Add(
		text.New(title, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 2}),
	))
}

func emptyRow(msg string) core.Row {
	return row.New(7).Add(col.New(12).Add(
		text.New(msg, props.Text{Size: 8, Color: colorGray, Align: align.Center, Top: 1}),
	))
}

func alertHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 7.5, Align: a, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(7).Add(
		h("Ítem", 3, align.Left),
		h("Cant.", 1, align.Right),
		h("Nivel", 1, align.Right),
		h("Estado", 2, align.Center),
		h("Urgencia", 2, align.Center),
		h("Días", 1, align.Right),
		h("Sugerido", 2, align.Right),
	)
}

func alertRows(alerts []entity.ClassificationResult) []core.Row {
	rows := make([]core.Row, 0, len(alerts))
	for _, a := range alerts {
		cell := func(s string, size int, al align.Type) core.Col {
			return col.New(size).Add(text.New(s, props.Text{Size: 8, Align: al, Top: 1, Left: 1, Right: 1}))
		}
		rows = append(rows, row.New(6).Add(
			cell(a.ItemCode, 3, align.Left),
			cell(a.CurrentQuantity.String(), 1, align.Right),
			cell(a.ReorderLevel.String(), 1, align.Right),
			cell(string(a.StockStatus), 2, align.Center),
			col.New(2).Add(text.New(string(a.UrgencyLevel), props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Center, Top: 1,
				Color: urgencyColor(a.UrgencyLevel),
			})),
			cell(a.EstimatedDaysOfStock.String(), 1, align.Right),
			cell(a.SuggestedOrderQuantity.StringFixed(2), 2, align.Right),
		))
	}
	return rows
}

func discrepancyRows(ds []entity.IntegrityDiscrepancy) []core.Row {
	rows := make([]core.Row, 0, len(ds))
	for _, d := range ds {
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New(fmt.Sprintf("%s   log %s   vista %s   dif. %s",
				d.ItemCode, d.LedgerComputedQuantity, d.MaterializedViewQuantity, d.Delta),
				props.Text{Size: 8, Top: 0.5, Left: 2}),
		)))
	}
	return rows
}

func negativeRows(ps []entity.StockPosition) []core.Row {
	rows := make([]core.Row, 0, len(ps))
	for _, p := range ps {
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New(fmt.Sprintf("%s   saldo %s", p.ItemCode, p.CurrentQuantity),
				props.Text{Size: 8, Top: 0.5, Left: 2, Color: colorCritical}),
		)))
	}
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func urgencyColor(u entity.UrgencyLevel) *props.Color {
	switch u {
	case entity.UrgencyCritical:
		return colorCritical
	case entity.UrgencyHigh:
		return colorHigh
	}
	return colorGray
}
