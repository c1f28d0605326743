// Package columns maps a batch's column headers to semantic roles (date,
// proposal value, invoice value, category, counterparty) using an ordered
// rule table per role: caller overrides, then exact/alias candidates, then
// generic keywords, then a numeric-content sample for the value roles.
package columns

import "sheets-report-service/internal/models"

// roleRule is the ordered rule set for one column role. Aliases are tried
// before keywords; earlier entries win even when later ones also match.
type roleRule struct {
	role models.ColumnRole

	// aliases are known header spellings, matched as folded substrings in
	// priority order.
	aliases []string

	// keywords is the broader fallback set for the role.
	keywords []string

	// numericFallback enables the sampled numeric-content heuristic, used
	// only for the monetary roles.
	numericFallback bool
}

// dateWords disqualify a header from ever being picked as a value column,
// no matter how numeric its content looks (dates parse as numbers too).
var dateWords = []string{
	"data", "emissao", "envio", "vencimento", "prazo", "dia", "mes", "ano",
}

// roleRules lists the roles in resolution order. The header spellings come
// from the production sheets this service was built against; the keyword
// sets cover the generic PT/EN variants.
var roleRules = []roleRule{
	{
		role: models.RoleDate,
		aliases: []string{
			"Data de Envio do Boleto",
			"Data Emissão Boleto",
			"Data de Emissão Boleto",
			"Data de Vencimento Boleto",
			"Data Vencimento do Boleto",
			"Data Pagamento",
			"Data do Pagamento",
			"Data",
			"DT",
			"Date",
		},
		keywords: []string{
			"data", "date", "emissao", "lancamento", "competencia", "periodo",
		},
	},
	{
		role: models.RoleProposal,
		aliases: []string{
			"Valor Proposta",
			"Valor da Proposta",
			"Proposta",
		},
		keywords:        []string{"proposta", "orcamento", "pedido"},
		numericFallback: true,
	},
	{
		role: models.RoleInvoice,
		aliases: []string{
			"Valor do Boleto (R$)",
			"Valor do Boleto",
			"Boleto",
			"Valor da Nota (R$)",
		},
		keywords:        []string{"boleto", "fatura", "duplicata", "nota", "titulo"},
		numericFallback: true,
	},
	{
		role:     models.RoleCategory,
		aliases:  []string{"Tipo", "Categoria"},
		keywords: []string{"tipo", "categoria", "category", "type"},
	},
	{
		role:     models.RoleCounterparty,
		aliases:  []string{"Empresa", "Cliente"},
		keywords: []string{"empresa", "company", "cliente"},
	},
}
