// MODUL: tokenizer
// ZWECK: CLIP Text-Tokenizer (Byte-Level BPE mit fixer Kontextlaenge)
// INPUT: Merges-Datei des Modells (optional gzip), Eingabe-Strings
// OUTPUT: Token-ID-Sequenzen der Laenge ContextLength (int64)
// NEBENEFFEKTE: Dateisystem-Lesezugriff beim Laden
// ABHAENGIGKEITEN: dlclark/regexp2 (Pretokenizer-Pattern)
// HINWEISE: SOT/EOT werden ans Vokabular angehaengt; Truncation behaelt
//           EOT als letztes Token, Padding ist 0

package tokenizer

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/dlclark/regexp2"
)

// ContextLength ist die fixe Token-Sequenzlaenge des Text-Encoders
const ContextLength = 77

// Spezial-Token des CLIP-Vokabulars
const (
	startOfText = "<|startoftext|>"
	endOfText   = "<|endoftext|>"
)

// maxMerges begrenzt die gelesenen Merge-Regeln auf die Vokabular-Groesse
// des pretrained Modells (49152 - 256 Bytes - 2 Spezial-Token)
const maxMerges = 48894

// Pretokenizer-Pattern des CLIP-Tokenizers (case-insensitive)
const pretokenPattern = `<\|startoftext\|>|<\|endoftext\|>|'s|'t|'re|'ve|'m|'ll|'d|[\p{L}]+|[\p{N}]|[^\s\p{L}\p{N}]+`

var (
	ErrEmptyMerges = errors.New("tokenizer: merges file contains no rules")
)

// Tokenizer implementiert den Text-Tokenizer des geladenen Modells.
// Nach dem Laden ist er unveraenderlich und sicher fuer konkurrente Nutzung.
type Tokenizer struct {
	encoder   map[string]int64
	ranks     map[bpePair]int
	byteTable map[byte]rune
	pattern   *regexp2.Regexp
	sotID     int64
	eotID     int64

	cacheMu sync.RWMutex
	cache   map[string][]string
}

// Load liest die Merges-Datei und baut daraus das vollstaendige Vokabular:
// 256 Byte-Symbole, dieselben mit </w>, alle Merge-Ergebnisse, dann SOT/EOT.
func Load(mergesPath string) (*Tokenizer, error) {
	f, err := os.Open(mergesPath)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: merges oeffnen: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f
	if strings.HasSuffix(mergesPath, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("tokenizer: gzip lesen: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	merges, err := readMerges(reader)
	if err != nil {
		return nil, err
	}
	if len(merges) == 0 {
		return nil, ErrEmptyMerges
	}

	byteTable := bytesToUnicode()

	// Basis-Vokabular: Byte-Symbole in der Einfuege-Reihenfolge des
	// pretrained Vokabulars, sonst stimmen die IDs nicht
	ordered := orderedByteSymbols(byteTable)

	encoder := make(map[string]int64, 2*len(ordered)+len(merges)+2)
	var id int64
	for _, s := range ordered {
		encoder[s] = id
		id++
	}
	for _, s := range ordered {
		encoder[s+wordEnd] = id
		id++
	}

	ranks := make(map[bpePair]int, len(merges))
	for i, m := range merges {
		ranks[m] = i
		encoder[m.first+m.second] = id
		id++
	}

	sotID := id
	encoder[startOfText] = id
	id++
	eotID := id
	encoder[endOfText] = id

	pattern := regexp2.MustCompile(pretokenPattern, regexp2.IgnoreCase)

	return &Tokenizer{
		encoder:   encoder,
		ranks:     ranks,
		byteTable: byteTable,
		pattern:   pattern,
		sotID:     sotID,
		eotID:     eotID,
		cache:     make(map[string][]string),
	}, nil
}

// readMerges liest Merge-Regeln, ueberspringt die Versions-Kopfzeile
func readMerges(r io.Reader) ([]bpePair, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var merges []bpePair
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if first {
			first = false
			if strings.HasPrefix(line, "#") || strings.Contains(line, "version") {
				continue
			}
		}
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) != 2 {
			continue
		}
		merges = append(merges, bpePair{parts[0], parts[1]})

		if len(merges) >= maxMerges {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("tokenizer: merges lesen: %w", err)
	}

	return merges, nil
}

// orderedByteSymbols gibt die Byte-Symbole in der Reihenfolge zurueck, in
// der das pretrained Vokabular sie vergibt: erst die unveraendert
// gemappten Bytes (druckbares ASCII, dann die beiden Latin-1-Bereiche),
// danach die ab U+0100 remappten Bytes in Byte-Reihenfolge.
func orderedByteSymbols(table map[byte]rune) []string {
	symbols := make([]string, 0, 256)
	direct := make(map[byte]bool, 256)
	for _, span := range [][2]int{{'!', '~'}, {0xA1, 0xAC}, {0xAE, 0xFF}} {
		for b := span[0]; b <= span[1]; b++ {
			symbols = append(symbols, string(table[byte(b)]))
			direct[byte(b)] = true
		}
	}
	for b := 0; b < 256; b++ {
		if !direct[byte(b)] {
			symbols = append(symbols, string(table[byte(b)]))
		}
	}
	return symbols
}

// VocabSize gibt die Groesse des Vokabulars zurueck
func (t *Tokenizer) VocabSize() int {
	return len(t.encoder)
}

// Encode tokenisiert einen String zu exakt ContextLength Token-IDs.
// Laengere Eingaben werden abgeschnitten (EOT bleibt letztes Token),
// kuerzere mit 0 aufgefuellt.
func (t *Tokenizer) Encode(text string) ([]int64, error) {
	ids := []int64{t.sotID}

	for _, token := range t.pretokenize(cleanText(text)) {
		// Token-Bytes auf Unicode-Symbole abbilden
		var mapped strings.Builder
		for _, b := range []byte(token) {
			mapped.WriteRune(t.byteTable[b])
		}

		for _, sub := range t.applyBPE(mapped.String()) {
			id, ok := t.encoder[sub]
			if !ok {
				return nil, fmt.Errorf("tokenizer: unknown subword %q", sub)
			}
			ids = append(ids, id)
		}
	}

	ids = append(ids, t.eotID)

	// Auf Kontextlaenge bringen
	if len(ids) > ContextLength {
		ids = ids[:ContextLength]
		ids[ContextLength-1] = t.eotID
	}
	for len(ids) < ContextLength {
		ids = append(ids, 0)
	}

	return ids, nil
}

// EncodeBatch tokenisiert mehrere Strings in einen flachen Puffer
// der Form [n * ContextLength], zeilenweise in Eingabe-Reihenfolge.
func (t *Tokenizer) EncodeBatch(texts []string) ([]int64, error) {
	out := make([]int64, 0, len(texts)*ContextLength)
	for i, text := range texts {
		ids, err := t.Encode(text)
		if err != nil {
			return nil, fmt.Errorf("tokenizer: text %d: %w", i, err)
		}
		out = append(out, ids...)
	}
	return out, nil
}

// pretokenize zerlegt den Text mit dem CLIP-Pattern in Rohtoken
func (t *Tokenizer) pretokenize(text string) []string {
	var tokens []string
	m, err := t.pattern.FindStringMatch(text)
	for err == nil && m != nil {
		tokens = append(tokens, m.String())
		m, err = t.pattern.FindNextMatch(m)
	}
	return tokens
}

// cleanText normalisiert Whitespace und Gross-/Kleinschreibung
func cleanText(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}
