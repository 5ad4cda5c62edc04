// MODUL: tokenizer/bpe
// ZWECK: Byte-Level BPE Kernfunktionen (Byte-Mapping, Pair-Merging)
// INPUT: UTF-8 Woerter aus dem Pretokenizer
// OUTPUT: BPE-Subword-Sequenzen
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: keine (nur Standardbibliothek)
// HINWEISE: Identisches Verhalten wie der Tokenizer des pretrained Modells

package tokenizer

// wordEnd markiert das Wortende im CLIP-Vokabular
const wordEnd = "</w>"

// bytesToUnicode bildet alle 256 Byte-Werte auf druckbare Unicode-Zeichen
// ab. Druckbare ASCII- und Latin-1-Bereiche bleiben erhalten, der Rest
// wird ab U+0100 fortlaufend vergeben.
func bytesToUnicode() map[byte]rune {
	var bs []int
	for b := int('!'); b <= int('~'); b++ {
		bs = append(bs, b)
	}
	for b := 0xA1; b <= 0xAC; b++ {
		bs = append(bs, b)
	}
	for b := 0xAE; b <= 0xFF; b++ {
		bs = append(bs, b)
	}

	mapping := make(map[byte]rune, 256)
	for _, b := range bs {
		mapping[byte(b)] = rune(b)
	}

	n := 0
	for b := 0; b < 256; b++ {
		if _, ok := mapping[byte(b)]; !ok {
			mapping[byte(b)] = rune(256 + n)
			n++
		}
	}

	return mapping
}

// bpePair ist ein benachbartes Symbol-Paar innerhalb eines Wortes
type bpePair struct {
	first  string
	second string
}

// getPairs sammelt alle benachbarten Symbol-Paare eines Wortes
func getPairs(word []string) map[bpePair]struct{} {
	pairs := make(map[bpePair]struct{})
	for i := 0; i < len(word)-1; i++ {
		pairs[bpePair{word[i], word[i+1]}] = struct{}{}
	}
	return pairs
}

// applyBPE zerlegt ein vorab byte-gemapptes Wort per Merge-Regeln.
// Das letzte Symbol traegt den </w> Suffix. Ergebnisse werden vom
// Aufrufer gecacht.
func (t *Tokenizer) applyBPE(token string) []string {
	if cached, ok := t.cacheGet(token); ok {
		return cached
	}

	runes := []rune(token)
	if len(runes) == 0 {
		return nil
	}

	// Initiale Zerlegung: einzelne Zeichen, letztes mit </w>
	word := make([]string, len(runes))
	for i, r := range runes {
		word[i] = string(r)
	}
	word[len(word)-1] += wordEnd

	pairs := getPairs(word)
	if len(pairs) == 0 {
		result := []string{word[0]}
		t.cachePut(token, result)
		return result
	}

	for {
		// Paar mit dem niedrigsten Merge-Rang suchen
		best := bpePair{}
		bestRank := -1
		for pair := range pairs {
			rank, ok := t.ranks[pair]
			if !ok {
				continue
			}
			if bestRank < 0 || rank < bestRank {
				best = pair
				bestRank = rank
			}
		}
		if bestRank < 0 {
			break
		}

		// Alle Vorkommen des besten Paars zusammenfassen
		var merged []string
		for i := 0; i < len(word); {
			if i < len(word)-1 && word[i] == best.first && word[i+1] == best.second {
				merged = append(merged, best.first+best.second)
				i += 2
			} else {
				merged = append(merged, word[i])
				i++
			}
		}
		word = merged

		if len(word) == 1 {
			break
		}
		pairs = getPairs(word)
	}

	t.cachePut(token, word)
	return word
}

// cacheGet liest ein BPE-Ergebnis aus dem Cache
func (t *Tokenizer) cacheGet(token string) ([]string, bool) {
	t.cacheMu.RLock()
	defer t.cacheMu.RUnlock()
	cached, ok := t.cache[token]
	return cached, ok
}

// cachePut speichert ein BPE-Ergebnis; der Cache waechst unbegrenzt mit
// dem Vokabular der Eingaben, bleibt in der Praxis aber klein
func (t *Tokenizer) cachePut(token string, word []string) {
	t.cacheMu.Lock()
	defer t.cacheMu.Unlock()
	t.cache[token] = word
}
