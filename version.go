package crumbtrail

// Version is the release of the crumbtrail module.
const Version = "0.3.0"
