package config

const (
	defaultOutputDir         = "~/.local/share/reelpress/output"
	defaultLogDir            = "~/.local/share/reelpress/logs"
	defaultAudioDir          = "~/.local/share/reelpress/audio"
	defaultAssetBind         = "127.0.0.1:8000"
	defaultTokenEnv          = "REELPRESS_BOT_TOKEN"
	defaultDownloadTimeout   = 30
	defaultViewportWidth     = 2560
	defaultViewportHeight    = 2560
	defaultScale             = 2.0
	defaultSelector          = ".template"
	defaultLaunchRetries     = 3
	defaultRetryBackoff      = 2
	defaultLaunchTimeout     = 60
	defaultLoadTimeout       = 60
	defaultMaxEngines        = 2
	defaultFFmpegBinary      = "ffmpeg"
	defaultVideoDuration     = 8
	defaultVideoBitrate      = "5000k"
	defaultAudioBitrate      = "320k"
	defaultEncodePreset      = "slow"
	defaultEncodeCRF         = 18
	defaultEncodeTimeout     = 120
	defaultNotifyTimeout     = 10
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			AudioDir:  defaultAudioDir,
			AssetBind: defaultAssetBind,
		},
		Transport: Transport{
			TokenEnv:               defaultTokenEnv,
			DownloadTimeoutSeconds: defaultDownloadTimeout,
		},
		Audio: Audio{
			Tracks: []AudioTrack{
				{ID: "audio_I", Label: "Audio I", File: "audioI.mp3"},
				{ID: "audio_II", Label: "Audio II", File: "audioII.mp3"},
			},
		},
		Render: Render{
			ViewportWidth:      defaultViewportWidth,
			ViewportHeight:     defaultViewportHeight,
			Scale:              defaultScale,
			Selector:           defaultSelector,
			LaunchRetries:      defaultLaunchRetries,
			RetryBackoff:       defaultRetryBackoff,
			LaunchTimeout:      defaultLaunchTimeout,
			LoadTimeout:        defaultLoadTimeout,
			MaxEngineInstances: defaultMaxEngines,
		},
		Encode: Encode{
			FFmpegBinary:    defaultFFmpegBinary,
			DurationSeconds: defaultVideoDuration,
			VideoBitrate:    defaultVideoBitrate,
			AudioBitrate:    defaultAudioBitrate,
			Preset:          defaultEncodePreset,
			CRF:             defaultEncodeCRF,
			TimeoutSeconds:  defaultEncodeTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Completed:      true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
