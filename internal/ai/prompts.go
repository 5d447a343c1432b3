package ai

import (
	"fmt"
	"strings"

	"github.com/ivargas/misterio/internal/game"
)

// The game master prompts are kept in Spanish: the mystery is set in the
// Córdoba city council and the narration language is controlled separately
// through the locale placeholder.

func mysteryPrompt(locale string) string {
	return fmt.Sprintf(`Actúa como un maestro escritor de misterios al estilo de Agatha Christie. Crea un completo misterio de asesinato ambientado en el Concejo Deliberante de la ciudad de Córdoba, Argentina, en el año 2025.
Para la creación de personajes ficticios y para dar consistencia a la narración, utiliza como referencia la estructura, roles y comisiones que se encuentran en el sitio web oficial www.cdcordoba.gob.ar.
La víctima es un concejal influyente y polémico. El escenario y TODAS las locaciones mencionadas deben estar estrictamente dentro del NUEVO edificio del Concejo Deliberante de la ciudad de Córdoba, ubicado en Av. Gdor. Amadeo Sabattini 4700. No utilices el antiguo edificio (Palacio 6 de Julio). No introduzcas ninguna ubicación externa. Los personajes deben ser ficticios pero realistas para ese entorno, inspirados en los roles que encontrarías en el concejo real.
Debes proporcionar un objeto JSON con las claves "title", "initialScene", "initialImagePrompt" y "secretSolution":
1.  "title": un título intrigante.
2.  "initialScene": una escena inicial detallada que describe el descubrimiento del cuerpo y el entorno.
3.  "initialImagePrompt": un prompt para un generador de imágenes que capture la atmósfera de la escena inicial con un estilo cinematográfico y noir. El prompt debe ser descriptivo pero evitar lenguaje que pueda ser interpretado como gráfico o violento (ej. en lugar de "cuerpo ensangrentado", usar "figura inmóvil en el suelo").
4.  "secretSolution": una solución secreta detallada que explique quién es el asesino, su motivo, el método y cómo se pueden interpretar las pistas.
La respuesta DEBE estar en el idioma: %s.
IMPORTANTE: NO incluyas nombres de políticos o personalidades reales. Utiliza nombres y personalidades completamente ficticias, aunque sus roles y funciones se basen en la información del sitio web de referencia.
Tu respuesta debe ser únicamente el objeto JSON, sin ningún texto adicional, explicaciones o formato markdown.`, locale)
}

func turnPrompt(history []game.ChatMessage, action, locale string) string {
	return fmt.Sprintf(`Eres el Game Master de un juego de misterio. El jugador es un detective. La historia hasta ahora es:
%s

La última acción del jugador es: "%s".

Basado en la acción del jugador, genera la siguiente parte de la historia. La narración debe ser puramente descriptiva y en el idioma del jugador (%s). NO incluyas la acción del jugador en tu respuesta. NO incluyas meta-comentarios.
Responde únicamente con un objeto JSON con las claves "narration", "imagePrompt" y "newClue":
"narration": la continuación de la historia, solo narración pura.
"imagePrompt": un nuevo prompt de imagen que refleja la narración, evitando lenguaje que pueda ser interpretado como gráfico o violento (ej. en lugar de "cuchillo en el pecho", usar "un objeto metálico sobre la camisa").
"newClue": una pista clave que el jugador descubrió, si la hay. Si no hay una nueva pista específica, este campo debe ser una cadena vacía.`,
		historyTranscript(history), action, locale)
}

func judgePrompt(proposed, secret, locale string) string {
	return fmt.Sprintf(`Eres el Game Master. El jugador ha propuesto una solución al misterio.

La solución secreta es: "%s"

La solución propuesta por el jugador es: "%s"

Analiza si la propuesta del jugador es correcta. Compara su razonamiento con la solución secreta. Tu respuesta debe estar en el idioma: %s.
Responde únicamente con un objeto JSON con las claves "isCorrect" (booleano) y "explanation" (una explicación detallada de por qué la solución es correcta o incorrecta).`,
		secret, proposed, locale)
}

// historyTranscript replays the chat history verbatim, one "role: text" line
// per message, as context for the model.
func historyTranscript(history []game.ChatMessage) string {
	lines := make([]string, len(history))
	for i, message := range history {
		lines[i] = fmt.Sprintf("%s: %s", message.Speaker, message.Text)
	}
	return strings.Join(lines, "\n")
}
