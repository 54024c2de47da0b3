package throttle

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// KeyFunc computa a chave de partição de um request.
//
// Retornar erro significa "não foi possível produzir a chave" — condição
// distinta de retornar a string vazia (que é uma chave válida e seleciona o
// bucket global). O middleware responde 500 nesse caso, sem consultar nem
// criar bucket algum.
type KeyFunc func(r *http.Request) (string, error)

// GlobalKey devolve sempre a chave vazia: todos os requests dividem um
// único bucket.
func GlobalKey() KeyFunc {
	return func(*http.Request) (string, error) { return "", nil }
}

// KeyByHeader particiona pelo valor de um header. Header ausente ou em
// branco é falha de avaliação, não chave vazia: o chamador configurou
// particionamento por header e o request não trouxe o dado.
func KeyByHeader(name string) KeyFunc {
	return func(r *http.Request) (string, error) {
		v := strings.TrimSpace(r.Header.Get(name))
		if v == "" {
			return "", fmt.Errorf("throttle: header %q missing or blank", name)
		}
		return v, nil
	}
}

// KeyByClientIP particiona pelo IP do cliente. Nunca falha: sempre existe
// algum endereço para usar como chave.
func KeyByClientIP(trustXFF bool) KeyFunc {
	return func(r *http.Request) (string, error) {
		if trustXFF {
			// pega o primeiro IP do X-Forwarded-For (cliente original)
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				parts := strings.Split(xff, ",")
				if len(parts) > 0 {
					ip := strings.TrimSpace(parts[0])
					if ip != "" {
						return ip, nil
					}
				}
			}
		}

		// fallback: RemoteAddr
		host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
		if err == nil && host != "" {
			return host, nil
		}
		if r.RemoteAddr != "" {
			return r.RemoteAddr, nil
		}
		return "unknown", nil
	}
}
