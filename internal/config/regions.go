package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"pixienews/internal/domain/entity"
)

//go:embed regions.yaml
var defaultRegionsYAML []byte

// regionsFile mirrors the on-disk layout of the region catalog.
type regionsFile struct {
	Regions []regionDoc `yaml:"regions"`
}

type regionDoc struct {
	Code    string      `yaml:"code"`
	Name    string      `yaml:"name"`
	Flag    string      `yaml:"flag"`
	Sources []sourceDoc `yaml:"sources"`
}

type sourceDoc struct {
	Name         string      `yaml:"name"`
	URL          string      `yaml:"url"`
	Type         string      `yaml:"type"`
	FilterTopics *bool       `yaml:"filter_topics"`
	Scraper      *scraperDoc `yaml:"scraper"`
}

type scraperDoc struct {
	Item       string `yaml:"item"`
	Title      string `yaml:"title"`
	URL        string `yaml:"url"`
	Date       string `yaml:"date"`
	Summary    string `yaml:"summary"`
	DateFormat string `yaml:"date_format"`
	URLPrefix  string `yaml:"url_prefix"`
}

// LoadRegions reads the region catalog from path, or the embedded default
// catalog when path is empty.
// The path parameter comes from REGIONS_FILE or a CLI flag.
func LoadRegions(path string) ([]entity.Region, error) {
	data := defaultRegionsYAML
	if path != "" {
		// #nosec G304 -- operator supplied path
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read regions file: %w", err)
		}
		data = b
	}
	return ParseRegions(data)
}

// DefaultRegions returns the embedded catalog. It panics if the embedded
// file is invalid, which is a build defect.
func DefaultRegions() []entity.Region {
	regions, err := ParseRegions(defaultRegionsYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded regions.yaml: %v", err))
	}
	return regions
}

// ParseRegions decodes and validates a YAML region catalog. Codes are
// normalized to upper case and must be unique.
func ParseRegions(data []byte) ([]entity.Region, error) {
	var doc regionsFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse regions: %w", err)
	}
	if len(doc.Regions) == 0 {
		return nil, fmt.Errorf("regions: %w", &entity.ValidationError{Field: "regions", Message: "at least one region is required"})
	}

	seen := make(map[string]struct{}, len(doc.Regions))
	regions := make([]entity.Region, 0, len(doc.Regions))
	for _, rd := range doc.Regions {
		region := rd.toEntity()
		if err := region.Validate(); err != nil {
			return nil, fmt.Errorf("regions: %w", err)
		}
		if _, dup := seen[region.Code]; dup {
			return nil, fmt.Errorf("regions: duplicate region code %s: %w", region.Code, entity.ErrInvalidInput)
		}
		seen[region.Code] = struct{}{}
		regions = append(regions, region)
	}
	return regions, nil
}

func (rd regionDoc) toEntity() entity.Region {
	sources := make([]entity.SourceSpec, 0, len(rd.Sources))
	for _, sd := range rd.Sources {
		spec := entity.SourceSpec{
			Name:         sd.Name,
			URL:          sd.URL,
			Type:         entity.SourceType(sd.Type),
			FilterTopics: true,
		}
		if spec.Type == "" {
			spec.Type = entity.SourceTypeRSS
		}
		if sd.FilterTopics != nil {
			spec.FilterTopics = *sd.FilterTopics
		}
		if sd.Scraper != nil {
			spec.Scraper = &entity.ScraperConfig{
				ItemSelector:    sd.Scraper.Item,
				TitleSelector:   sd.Scraper.Title,
				URLSelector:     sd.Scraper.URL,
				DateSelector:    sd.Scraper.Date,
				SummarySelector: sd.Scraper.Summary,
				DateFormat:      sd.Scraper.DateFormat,
				URLPrefix:       sd.Scraper.URLPrefix,
			}
		}
		sources = append(sources, spec)
	}
	return entity.Region{
		Code:    entity.NormalizeRegionCode(rd.Code),
		Name:    rd.Name,
		Flag:    rd.Flag,
		Sources: sources,
	}
}
