package prediction

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fleveque/mercado-futuro/internal/model"
)

const noEventText = "Ningún evento adicional significativo."

// BuildPrompt creates the analyst prompt for a request. The output format at
// the end is what ParseResponse expects; change both together.
//
// The price anchor and the projected-price instructions are only included
// when the request carries a current price.
func BuildPrompt(req model.PredictionRequest) string {
	hasPrice := req.HasCurrentPrice()
	price := ""
	if hasPrice {
		price = strconv.FormatFloat(*req.CurrentPrice, 'f', -1, 64)
	}

	event := req.ImportantEvent
	if event == "" {
		event = noEventText
	}

	var b strings.Builder

	fmt.Fprintf(&b, `Eres un analista financiero experto con sólidos conocimientos en análisis técnico y fundamental.
Tu tarea es predecir el próximo movimiento del precio para la acción "%s" en el marco temporal de "%s".

Realiza un análisis técnico simulado para esta acción, considerando:
- Tendencias de precios recientes y patrones gráficos.
- Indicadores clave como RSI, MACD, volumen de negociación, y medias móviles.
- Cualquier noticia relevante o movimientos de precios significativos recientes (como rallies alcistas o caídas) que puedas encontrar utilizando tu herramienta de búsqueda.
`, req.Symbol, req.Timeframe)

	if hasPrice {
		fmt.Fprintf(&b, `
Si se proporciona un "Precio Actual" (Manual) de %s, utilízalo como punto de partida para tu análisis.
`, price)
	}

	fmt.Fprintf(&b, `
Además, integra el siguiente evento importante proporcionado por el usuario, que podría influir en el precio:
"%s"
`, event)

	priceBasis := ""
	if hasPrice {
		priceBasis = " el precio actual proporcionado,"
	}
	fmt.Fprintf(&b, `
Basándote en este análisis técnico simulado,%s y el evento importante, predice el próximo movimiento del precio como 'Up' (al alza), 'Down' (a la baja) o 'Stable' (estable).
Justifica tu predicción con un razonamiento conciso y profesional. Asegúrate de que tu razonamiento sea consistente con el análisis técnico y el impacto potencial del evento. Si el evento es muy fuerte y contradice la lógica del análisis técnico, explica claramente por qué lo ha anulado.

Finalmente, basándote en todo el análisis y la predicción, proporciona una sugerencia concreta para el inversor: 'Compra Moderada', 'Mantener' o 'Vender'.
`, priceBasis)

	if hasPrice {
		fmt.Fprintf(&b, `
Además, proyecta un precio objetivo o un rango de precios para la acción "%s" al final del marco temporal de "%s". Si no es posible dar un precio específico o un rango, indica "No se puede determinar" y explica brevemente por qué.
`, req.Symbol, req.Timeframe)
	}

	b.WriteString("\nFormato de respuesta deseado (solo el texto de la predicción, razonamiento, sugerencia")
	if hasPrice {
		b.WriteString(" y precio proyectado")
	}
	b.WriteString("):\n")
	b.WriteString(labelPrediction + " [Up/Down/Stable]\n")
	b.WriteString(labelReasoning + " [Tu justificación detallada aquí]\n")
	b.WriteString(labelSuggestion + " [Compra Moderada/Mantener/Vender]\n")
	if hasPrice {
		b.WriteString(labelProjectedPrice + ` [Valor, Rango o "No se puede determinar" con explicación]` + "\n")
	}

	return b.String()
}
