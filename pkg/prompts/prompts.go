// Package prompts holds the fixed oracle-facing prompt text and the
// synthesized player-turn templates. The adventure is narrated in Brazilian
// Portuguese; the scene-image prompts stay in English for the image model.
package prompts

import "fmt"

// SystemInstruction is the DM persona directive sent with every oracle call.
const SystemInstruction = `Você é um Mestre de RPG (Dungeon Master) experiente e criativo.
Sua tarefa é conduzir uma aventura épica para o jogador usando um sistema baseado em d20.

REGRAS:
1. Sempre responda em Português do Brasil.
2. Descreva cenas com riqueza de detalhes sensoriais e atmosfera imersiva.
3. Gerencie NPCs e vilões com personalidades distintas.
4. Quando o jogador quiser realizar uma ação desafiadora (atacar, investigar, persuadir, etc.), você DEVE solicitar explicitamente um teste de d20 através do campo "requiresRoll".
5. Sempre forneça de 3 a 4 opções de ações sugeridas no campo "options".
6. Se o jogador ganhar ou encontrar um item, descreva na narração.
7. O formato de resposta deve ser SEMPRE um JSON válido seguindo o esquema fornecido.`

// OpeningPrompt asks the oracle for the session's greeting narration.
const OpeningPrompt = "Inicie o jogo de RPG me cumprimentando e pedindo para eu criar meu personagem (Gênero, Raça, Classe)."

// User-facing narrator fallbacks for the failure taxonomy.
const (
	FallbackNarration    = "O Mestre ficou em silêncio por um momento..."
	MsgCredentialFailure = "A conexão com o Oráculo falhou. Por favor, selecione uma chave de API válida."
	MsgOracleUnreachable = "A névoa impede sua visão. O oráculo está temporariamente inacessível."
)

// DefaultOptions is the suggested-action set used when the oracle's
// structured output cannot be parsed.
func DefaultOptions() []string {
	return []string{"Continuar", "Observar ao redor", "Esperar"}
}

// Scene image generation bounds: narrations at or under the threshold get no
// image, and the image prompt uses at most ScenePromptLimit characters of
// narration.
const (
	SceneImageThreshold = 150
	ScenePromptLimit    = 300
)

// ScenePrompt builds the image-model prompt from a narration excerpt.
func ScenePrompt(narration string) string {
	excerpt := []rune(narration)
	if len(excerpt) > ScenePromptLimit {
		excerpt = excerpt[:ScenePromptLimit]
	}
	return fmt.Sprintf("Fantasy RPG oil painting, high-quality concept art: %s. Immersive lighting, detailed environment.", string(excerpt))
}

// AdventureStart synthesizes the first story turn once the party is final.
func AdventureStart(genre, roster string) string {
	return fmt.Sprintf("Iniciamos nossa jornada! O gênero da aventura é %s. Nossa equipe é composta por: %s. Mestre, pode começar a história!", genre, roster)
}

// RollTurn synthesizes the player turn reporting a die outcome.
func RollTurn(characterName, rollType string, outcome int) string {
	if rollType == "" {
		rollType = "Sorte"
	}
	return fmt.Sprintf("%s rolou um d20 para %s e tirou: **%d**", characterName, rollType, outcome)
}

// PlayerTurn prefixes free-text input with the acting character's name, so
// the oracle can attribute the action in a multi-character party.
func PlayerTurn(characterName, text string) string {
	if characterName == "" {
		characterName = "Jogador"
	}
	return fmt.Sprintf("%s: %s", characterName, text)
}
