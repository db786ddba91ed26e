package model

// 前后端通信消息结构
type Msg struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Env carries the runtime-adjustable simulation parameters. The front end sends
// the full struct with an "env" message before starting and a partial update
// with "set" while running. Zero values mean "keep the current setting" on a
// "set".
type Env struct {
	AmbientTemperature float32 `json:"ambient_temperature"`
	WallHeatTransfer   float32 `json:"wall_heat_transfer"`
	ConvectionWater    float32 `json:"convection_water"`
	ConvectionAir      float32 `json:"convection_air"`
	TimeScale          float32 `json:"time_scale"`

	// initial fill temperatures, only honoured by "env" before a start
	IceTemperature   float32 `json:"ice_temperature"`
	WaterTemperature float32 `json:"water_temperature"`
	AirTemperature   float32 `json:"air_temperature"`
}

// CellData is one committed cell in the per-tick snapshot.
type CellData struct {
	X           int     `json:"x"`
	Y           int     `json:"y"`
	Temperature float32 `json:"temperature"`
	Phase       string  `json:"phase"`
}

// FieldData is the full committed snapshot pushed to the renderer.
type FieldData struct {
	Columns     int        `json:"columns"`
	Rows        int        `json:"rows"`
	Tick        int64      `json:"tick"`
	TimeSeconds float32    `json:"time_seconds"`
	IceCells    int        `json:"ice_cells"`
	Cells       []CellData `json:"cells"`
}

// FieldDelta is the compact periodic push: temperatures quantised to 0.1 ℃ and
// delta-encoded in cell order. Positions and phases come from the last full
// "field" snapshot, so a delta is only valid while no cell has changed phase.
type FieldDelta struct {
	Tick        int64   `json:"tick"`
	TimeSeconds float32 `json:"time_seconds"`
	IceCells    int     `json:"ice_cells"`
	Start       int32   `json:"start"`
	Deltas      []int16 `json:"deltas"`
}
