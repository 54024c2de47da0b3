// Package application contém os casos de uso (regras de aplicação) para o
// throttling e o limite de requests em voo.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Service.Decide(key) retorna uma Decision (allow/deny + retry-after).
package application
