package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"flightwx/internal/models"
)

var (
	skyGroupRegex   = regexp.MustCompile(`^(FEW|SCT|BKN|OVC|VV)(\d{3}|///)(CB|TCU|///)?$`)
	clearGroupRegex = regexp.MustCompile(`^(SKC|CLR|NSC|NCD|CAVOK)$`)
)

// ParseSkyGroups extracts cloud layers from the body of a raw METAR.
// Heights are coded in hundreds of feet (BKN045 is 4500 ft AGL); VV is
// vertical visibility and becomes an OVX layer. Remarks are not read.
func ParseSkyGroups(raw string) ([]models.SkyLayer, error) {
	var layers []models.SkyLayer

	for _, token := range strings.Fields(raw) {
		if token == "RMK" || token == "TEMPO" || token == "BECMG" {
			break
		}
		if clearGroupRegex.MatchString(token) {
			continue
		}

		matches := skyGroupRegex.FindStringSubmatch(token)
		if matches == nil {
			continue
		}

		cover := models.Cover(matches[1])
		if cover == "VV" {
			cover = models.CoverObscured
		}

		if matches[2] == "///" {
			if cover.IsCeiling() {
				return nil, fmt.Errorf("%s layer has no reported height in %q", cover, token)
			}
			continue
		}

		hundreds, err := strconv.Atoi(matches[2])
		if err != nil {
			return nil, fmt.Errorf("bad sky group %q: %w", token, err)
		}
		layers = append(layers, models.SkyLayer{Cover: cover, BaseFtAGL: hundreds * 100})
	}

	return layers, nil
}
