// MODUL: clip/batch
// ZWECK: Begrenzung der Batch-Groesse pro Request
// INPUT: Item-Sequenz beliebiger Laenge, konfiguriertes Maximum
// OUTPUT: Prefix der Laenge min(len, max) in Original-Reihenfolge
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: keine
// HINWEISE: Ueberzaehlige Items werden stillschweigend verworfen, der
//           Aufrufer bekommt kein Truncation-Signal. Das begrenzt die
//           Compute-Kosten pro Request und ist bewusst so gewaehlt.

package clip

// Truncate gibt die ersten min(len(items), max) Items zurueck.
// Die Reihenfolge der behaltenen Items bleibt erhalten, der Rest
// wird vom Ende her verworfen. max <= 0 gibt eine leere Sequenz.
func Truncate[T any](items []T, max int) []T {
	if max <= 0 {
		return nil
	}
	if len(items) <= max {
		return items
	}
	return items[:max]
}
