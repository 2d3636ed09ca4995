package sensor

import "errors"

// Erros sentinela do protocolo de linha e do caminho de comandos
var (
	// ErrLineRejected linha malformada ou não reconhecida; descartada sem
	// interromper o fluxo de leitura
	ErrLineRejected = errors.New("linha rejeitada")

	// ErrOutOfRange argumento de comando fora do domínio permitido
	ErrOutOfRange = errors.New("valor fora do intervalo")

	// ErrUnknownChannel canal não registrado na pipeline
	ErrUnknownChannel = errors.New("canal desconhecido")

	// ErrIncompleteFrame conjunto de amostras sem todos os canais registrados
	ErrIncompleteFrame = errors.New("frame incompleto")
)
