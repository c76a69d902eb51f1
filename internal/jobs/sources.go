package jobs

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// SourceRecord is a job record as stored by the ingestion jobs: the upstream
// payload kept verbatim next to its source tag.
type SourceRecord struct {
	ID     string         `json:"id"`
	Source SourceType     `json:"sourceType"`
	Fields map[string]any `json:"fields"`
}

// SeoulRecord mirrors the Seoul city job API (GetJobInfo) row.
type SeoulRecord struct {
	ID          string `mapstructure:"JO_REQST_NO"`
	Title       string `mapstructure:"JO_SJ"`
	Company     string `mapstructure:"CMPNY_NM"`
	Duty        string `mapstructure:"DTY_CN"`
	Career      string `mapstructure:"CAREER_CND_NM"`
	Education   string `mapstructure:"ACDMCR_NM"`
	Closing     string `mapstructure:"RCEPT_CLOS_NM"`
	Guide       string `mapstructure:"GUI_LN"`
	Preferences string `mapstructure:"PRFRN_CND_CN"`
}

// Work24Record mirrors a Work24 (고용24) open recruitment item.
type Work24Record struct {
	ID           string `mapstructure:"wantedAuthNo"`
	Title        string `mapstructure:"title"`
	Company      string `mapstructure:"company"`
	Career       string `mapstructure:"career"`
	MinEducation string `mapstructure:"minEdubg"`
	MaxEducation string `mapstructure:"maxEdubg"`
	CloseDate    string `mapstructure:"closeDt"`
}

// GovernmentRecord mirrors the public-institution recruitment API item.
type GovernmentRecord struct {
	ID          string `mapstructure:"recrutPblntSn"`
	Title       string `mapstructure:"recrutPbancTtl"`
	Institution string `mapstructure:"instNm"`
	Career      string `mapstructure:"recrutSeNm"`
	Education   string `mapstructure:"acbgCondNmLst"`
	Preferences string `mapstructure:"prefCondCn"`
	Qualifying  string `mapstructure:"aplyQlfcCn"`
	EndDate     string `mapstructure:"pbancEndYmd"`
}

func decodeFields(fields map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(fields); err != nil {
		return fmt.Errorf("decode source fields: %w", err)
	}
	return nil
}
