package utils

import (
	"fmt"
	"strconv"
	"time"
)

// ISOTimestamp formata um time.Time em ISO-8601 com precisão de segundos
func ISOTimestamp(t time.Time) string {
	return t.Format("2006-01-02T15:04:05")
}

// TimestampedFilename gera um nome de arquivo com timestamp para evitar
// colisões entre execuções (ex: sensor_log_20250101_120000.csv)
func TimestampedFilename(prefix, ext string, t time.Time) string {
	return fmt.Sprintf("%s_%s.%s", prefix, t.Format("20060102_150405"), ext)
}

// FormatValue formata o valor de um canal para o CSV e para o protocolo:
// canais inteiros sem casas decimais, canais float com precisão fixa
func FormatValue(value float64, integer bool) string {
	if integer {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', 2, 64)
}

// FormatDuration formata uma duração para exibição amigável
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)

	h := d / time.Hour
	d -= h * time.Hour

	m := d / time.Minute
	d -= m * time.Minute

	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	} else if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// FormatDateTime formata um time.Time para exibição
func FormatDateTime(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
