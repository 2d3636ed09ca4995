package sensor

import "sensor_go/internal/models"

// Canais padrão da placa de sensores
const (
	// ChannelMoisture leitura de umidade do solo em contagens de ADC
	ChannelMoisture = "moisture"
	// ChannelTemperature leitura de temperatura em graus Celsius
	ChannelTemperature = "temp_C"
)

// DefaultChannels retorna o registro padrão de canais. A ordem define a
// posição dos campos na linha do protocolo e das colunas no CSV.
func DefaultChannels() []models.ChannelSpec {
	return []models.ChannelSpec{
		{ID: ChannelMoisture, Kind: models.KindInteger, Unit: "ADC"},
		{ID: ChannelTemperature, Kind: models.KindFloat, Unit: "°C"},
	}
}

// ChannelIDs retorna apenas os identificadores, na ordem de registro
func ChannelIDs(specs []models.ChannelSpec) []string {
	ids := make([]string, len(specs))
	for i, spec := range specs {
		ids[i] = spec.ID
	}
	return ids
}
