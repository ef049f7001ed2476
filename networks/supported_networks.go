package networks

import (
	"github.com/tranvictor/saddle/source"
)

func confirmationOptions() map[string]any {
	return map[string]any{
		"transactionConfirmationBlocks": 1,
		"transactionBlockTimeout":       5,
	}
}

var Development = Profile{
	Name: "development",
	Providers: source.List{
		source.EnvVar("PROVIDER"),
		source.HTTP("HTTP://127.0.0.1:7545"),
	},
	Accounts: source.List{
		source.EnvVar("ACCOUNT"),
		source.Unlocked(0),
	},
	Gas: source.List{
		source.EnvVar("GAS"),
		source.Default("4600000"),
	},
	GasPrice: source.List{
		source.EnvVar("GAS_PRICE"),
		source.Default("12000000000"),
	},
	Options: confirmationOptions(),
}

// Test connects to a fresh ephemeral node unless PROVIDER is set.
var Test = Profile{
	Name: "test",
	Providers: source.List{
		source.EnvVar("PROVIDER"),
		source.Ephemeral(map[string]any{"gasLimit": 80000000}),
	},
	Accounts: source.List{
		source.EnvVar("ACCOUNT"),
		source.Unlocked(0),
	},
	Gas: source.List{
		source.EnvVar("GAS"),
		source.Default("8000000"),
	},
	GasPrice: source.List{
		source.EnvVar("GAS_PRICE"),
		source.Default("12000000000"),
	},
	Options: confirmationOptions(),
}

// Mainnet reads the node URL and the private key from ~/.ethereum when the
// environment does not provide them.
var Mainnet = Profile{
	Name: "mainnet",
	Providers: source.List{
		source.EnvVar("PROVIDER"),
		source.File("~/.ethereum/mainnet-url"),
		source.HTTP("https://mainnet-eth.compound.finance"),
	},
	Accounts: source.List{
		source.EnvVar("ACCOUNT"),
		source.File("~/.ethereum/mainnet"),
	},
	Gas: source.List{
		source.EnvVar("GAS"),
		source.Default("4600000"),
	},
	GasPrice: source.List{
		source.EnvVar("GAS_PRICE"),
		source.Default("6000000000"),
	},
	Options: confirmationOptions(),
}

// SXMainnet gas is cheap enough that the default price is far lower.
var SXMainnet = Profile{
	Name: "sx_mainnet",
	Providers: source.List{
		source.EnvVar("PROVIDER"),
		source.HTTP("https://rpc.sx.technology"),
	},
	Accounts: source.List{
		source.EnvVar("ACCOUNT"),
		source.Unlocked(0),
	},
	Gas: source.List{
		source.EnvVar("GAS"),
		source.Default("4000000"),
	},
	GasPrice: source.List{
		source.EnvVar("GAS_PRICE"),
		source.Default("500000"),
	},
	Options: map[string]any{},
}

var SXTestnet = Profile{
	Name: "sx_testnet",
	Providers: source.List{
		source.EnvVar("PROVIDER"),
		source.HTTP("https://rpc.toronto.sx.technology"),
	},
	Accounts: source.List{
		source.EnvVar("ACCOUNT"),
		source.Unlocked(0),
	},
	Gas: source.List{
		source.EnvVar("GAS"),
		source.Default("4600000"),
	},
	GasPrice: source.List{
		source.EnvVar("GAS_PRICE"),
		source.Default("12000000000"),
	},
	Options: confirmationOptions(),
}

// Insert more profiles here to support more environments out of the box.
var supportedProfiles = []Profile{
	Development,
	Test,
	Mainnet,
	SXMainnet,
	SXTestnet,
}
