package solver

import (
	"errors"
	"fmt"

	"bottle/material"

	log "github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"
)

var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrNumericalInstability = errors.New("numerical instability")
)

// Config is read once when a session is constructed. A subset of it can be
// changed between ticks through the Set* methods on Simulation; geometry and
// resolution changes need a new session.
type Config struct {
	// 网格划分
	Columns  int     // x 方向单元数
	Rows     int     // y 方向单元数
	CellSize float32 // 单元边长，m

	// 初始相区，自底向上：水、冰、空气，行数之和必须等于 Rows
	WaterRows int
	IceRows   int
	AirRows   int

	IceTemperature   float32 // ℃
	WaterTemperature float32
	AirTemperature   float32

	// 边界换热
	AmbientTemperature float32 // ℃
	WallHeatTransfer   float32 // W/(m2·K)，瓶壁综合换热系数

	// 对流近似：液相/气相导热系数放大倍数
	ConvectionWater float32
	ConvectionAir   float32

	// 时间步长策略
	CFLSafety float32 // (0, 1]
	FixedStep float32 // s，0 表示自适应
	TimeScale float32 // 实时倍率

	Workers int // 通量累加的并行度

	// 物性参数覆盖，空表示使用内置默认值
	Overrides map[material.Phase]material.Properties
}

// LoadConfig reads conf/config.ini, falling back to built-in defaults for
// every key, the same way the calculator loads its grid parameters.
func LoadConfig(path string) Config {
	cfg := defaultConfig()
	file, err := ini.Load(path)
	if err != nil {
		log.WithFields(log.Fields{"path": path, "err": err}).Warn("config file not readable, using defaults")
		return cfg
	}

	sim := file.Section("simulation")
	cfg.Columns = sim.Key("Columns").MustInt(cfg.Columns)
	cfg.Rows = sim.Key("Rows").MustInt(cfg.Rows)
	cfg.CellSize = float32(sim.Key("CellSize").MustFloat64(float64(cfg.CellSize)))
	cfg.WaterRows = sim.Key("WaterRows").MustInt(cfg.WaterRows)
	cfg.IceRows = sim.Key("IceRows").MustInt(cfg.IceRows)
	cfg.AirRows = sim.Key("AirRows").MustInt(cfg.AirRows)
	cfg.IceTemperature = float32(sim.Key("IceTemperature").MustFloat64(float64(cfg.IceTemperature)))
	cfg.WaterTemperature = float32(sim.Key("WaterTemperature").MustFloat64(float64(cfg.WaterTemperature)))
	cfg.AirTemperature = float32(sim.Key("AirTemperature").MustFloat64(float64(cfg.AirTemperature)))

	boundary := file.Section("boundary")
	cfg.AmbientTemperature = float32(boundary.Key("AmbientTemperature").MustFloat64(float64(cfg.AmbientTemperature)))
	cfg.WallHeatTransfer = float32(boundary.Key("WallHeatTransfer").MustFloat64(float64(cfg.WallHeatTransfer)))

	convection := file.Section("convection")
	cfg.ConvectionWater = float32(convection.Key("Water").MustFloat64(float64(cfg.ConvectionWater)))
	cfg.ConvectionAir = float32(convection.Key("Air").MustFloat64(float64(cfg.ConvectionAir)))

	timestep := file.Section("timestep")
	cfg.CFLSafety = float32(timestep.Key("CFLSafety").MustFloat64(float64(cfg.CFLSafety)))
	cfg.FixedStep = float32(timestep.Key("FixedStep").MustFloat64(float64(cfg.FixedStep)))
	cfg.TimeScale = float32(timestep.Key("TimeScale").MustFloat64(float64(cfg.TimeScale)))
	cfg.Workers = timestep.Key("Workers").MustInt(cfg.Workers)

	cfg.Overrides = loadOverrides(file)
	return cfg
}

func loadOverrides(file *ini.File) map[material.Phase]material.Properties {
	overrides := make(map[material.Phase]material.Properties)
	table := material.NewTable()
	for _, phase := range []material.Phase{material.Ice, material.Water, material.Air} {
		name := "material." + phase.String()
		if _, err := file.GetSection(name); err != nil {
			continue
		}
		section := file.Section(name)
		base := table.Lookup(phase)
		overrides[phase] = material.Properties{
			Density:      float32(section.Key("Density").MustFloat64(float64(base.Density))),
			SpecificHeat: float32(section.Key("SpecificHeat").MustFloat64(float64(base.SpecificHeat))),
			Conductivity: float32(section.Key("Conductivity").MustFloat64(float64(base.Conductivity))),
			MeltingPoint: float32(section.Key("MeltingPoint").MustFloat64(float64(base.MeltingPoint))),
			LatentHeat:   float32(section.Key("LatentHeat").MustFloat64(float64(base.LatentHeat))),
		}
	}
	return overrides
}

func defaultConfig() Config {
	return Config{
		Columns:  40,
		Rows:     60,
		CellSize: 0.005,

		WaterRows: 30,
		IceRows:   10,
		AirRows:   20,

		IceTemperature:   -5.0,
		WaterTemperature: 5.0,
		AirTemperature:   5.0,

		AmbientTemperature: 25.0,
		WallHeatTransfer:   5.0,

		ConvectionWater: 40.0,
		ConvectionAir:   25.0,

		CFLSafety: 0.5,
		FixedStep: 0,
		TimeScale: 1.0,

		Workers: 4,
	}
}

// Validate rejects configurations the solver cannot run on. Failures are
// fatal to starting a session.
func (cfg Config) Validate() error {
	if cfg.Columns <= 0 || cfg.Rows <= 0 {
		return fmt.Errorf("%w: grid %dx%d must be positive", ErrInvalidConfiguration, cfg.Columns, cfg.Rows)
	}
	if cfg.CellSize <= 0 {
		return fmt.Errorf("%w: cell size %v must be positive", ErrInvalidConfiguration, cfg.CellSize)
	}
	if cfg.WaterRows < 0 || cfg.IceRows < 0 || cfg.AirRows < 0 {
		return fmt.Errorf("%w: negative region rows", ErrInvalidConfiguration)
	}
	if cfg.WaterRows+cfg.IceRows+cfg.AirRows != cfg.Rows {
		return fmt.Errorf("%w: regions cover %d rows, grid has %d",
			ErrInvalidConfiguration, cfg.WaterRows+cfg.IceRows+cfg.AirRows, cfg.Rows)
	}
	if cfg.AmbientTemperature < -100 || cfg.AmbientTemperature > 300 {
		return fmt.Errorf("%w: ambient temperature %v out of range", ErrInvalidConfiguration, cfg.AmbientTemperature)
	}
	if cfg.WallHeatTransfer < 0 {
		return fmt.Errorf("%w: wall heat transfer %v negative", ErrInvalidConfiguration, cfg.WallHeatTransfer)
	}
	if cfg.ConvectionWater < 1 || cfg.ConvectionAir < 1 {
		return fmt.Errorf("%w: convection multipliers must be >= 1", ErrInvalidConfiguration)
	}
	if cfg.CFLSafety <= 0 || cfg.CFLSafety > 1 {
		return fmt.Errorf("%w: CFL safety %v must be in (0, 1]", ErrInvalidConfiguration, cfg.CFLSafety)
	}
	if cfg.FixedStep < 0 {
		return fmt.Errorf("%w: fixed step %v negative", ErrInvalidConfiguration, cfg.FixedStep)
	}
	if cfg.TimeScale <= 0 {
		return fmt.Errorf("%w: time scale %v must be positive", ErrInvalidConfiguration, cfg.TimeScale)
	}
	for phase, props := range cfg.Overrides {
		if props.Density <= 0 || props.SpecificHeat <= 0 || props.Conductivity <= 0 {
			return fmt.Errorf("%w: non-positive properties for %s", ErrInvalidConfiguration, phase)
		}
		if phase == material.Ice && props.LatentHeat <= 0 {
			return fmt.Errorf("%w: non-positive latent heat for ice", ErrInvalidConfiguration)
		}
	}
	return nil
}
