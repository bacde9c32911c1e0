package ingest

import "strings"

// Canonical column identifiers produced by header mapping.
type column int

const (
	colUnknown column = iota
	colCustomer
	colOrder
	colDate
	colAmount
	colQuantity
	colState
	colFranchise
	colSegment
	colSalesperson
	colProduct
	colPayment
)

// headerAliases maps known source header variants (legacy aliases,
// accented and accent-stripped spellings) to canonical columns. Lookup
// keys are trimmed and upper-cased first, which also absorbs the
// trailing-space variants the ERP export is known to produce.
var headerAliases = map[string]column{
	"CLIENTE":        colCustomer,
	"NOME CLIENTE":   colCustomer,
	"RAZÃO SOCIAL":   colCustomer,
	"RAZAO SOCIAL":   colCustomer,
	"PEDIDO":         colOrder,
	"Nº PEDIDO":      colOrder,
	"N° PEDIDO":      colOrder,
	"NO PEDIDO":      colOrder,
	"NÚMERO PEDIDO":  colOrder,
	"NUMERO PEDIDO":  colOrder,
	"DATA FATURAMENTO PEDIDO": colDate,
	"DATA FATURAMENTO":        colDate,
	"DATA":                    colDate,
	"PREÇO VENDA TOTAL (R$)":  colAmount,
	"PRECO VENDA TOTAL (R$)":  colAmount,
	"VALOR TOTAL":             colAmount,
	"QUANTIDADE":              colQuantity,
	"QTDE":                    colQuantity,
	"QTD":                     colQuantity,
	"ESTADO":                  colState,
	"UF":                      colState,
	"FRANQUIA":                colFranchise,
	"SEGMENTO":                colSegment,
	"VENDEDOR":                colSalesperson,
	"DESCRIÇÃO":               colProduct,
	"DESCRICAO":               colProduct,
	"FORMA PAGAMENTO":         colPayment,
	"FORMA DE PAGAMENTO":      colPayment,
}

// mapHeader resolves one raw header cell to a canonical column.
func mapHeader(raw string) column {
	key := strings.ToUpper(strings.TrimSpace(stripBOM(raw)))
	if c, ok := headerAliases[key]; ok {
		return c
	}
	return colUnknown
}

func stripBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}
