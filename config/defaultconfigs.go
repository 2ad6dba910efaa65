package config

var DefaultConfig Config
var DefaultTheme Theme

func init() {
	DefaultTheme = Theme{
		DrawCoordinates: true,
		Colors: ConfigColors{
			LightSquare: 230,
			DarkSquare:  137,
			RedPiece:    160,
			BlackPiece:  232,
			CursorBG:    4,
			OriginBG:    2,
			MoveBG:      220,
			KillBG:      203,
		},
		Symbols: ConfigSymbols{
			Pawn:  '●',
			Queen: '◎',
			Empty: ' ',
		},
	}

	DefaultConfig = Config{
		Theme: DefaultTheme,
		Engine: EngineConfig{
			Path:          "checkers-engine",
			CallTimeoutMs: 5000,
			Handshake: HandshakeConfig{
				IntervalMs: 100,
			},
		},
		Autoplay: AutoplayConfig{
			DelayMs: 250,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
