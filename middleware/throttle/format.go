package throttle

import (
	"strconv"
	"time"
)

func formatInt(v int) string { return strconv.Itoa(v) }

// retrySeconds converte a espera para segundos inteiros, arredondando para
// cima quando a conversão não é exata: o cliente nunca pode ser aconselhado
// a voltar antes de o bucket ter vaga. Uma rejeição nunca anuncia 0.
func retrySeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
